// SPDX-License-Identifier: MIT
package audio

// fakeDevice records stream parameters and hands out streams whose render
// callback is driven by the test through pump.
type fakeDevice struct {
	openErr  error
	startErr error
	opens    int
	params   StreamParams
	stream   *fakeStream
}

func (d *fakeDevice) OpenStream(p StreamParams, render RenderFunc) (Stream, error) {
	d.opens++
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.params = p
	d.stream = &fakeStream{
		render:   render,
		startErr: d.startErr,
		buf:      make([]float32, p.FramesPerBuffer*p.Channels),
	}
	return d.stream, nil
}

type fakeStream struct {
	render   RenderFunc
	startErr error
	buf      []float32

	starts, stops, closes int
}

// pump runs one render callback, as the device thread would.
func (s *fakeStream) pump() Result {
	return s.render(s.buf)
}

func (s *fakeStream) Start() error {
	s.starts++
	return s.startErr
}

func (s *fakeStream) Stop() error {
	s.stops++
	return nil
}

func (s *fakeStream) Close() error {
	s.closes++
	return nil
}
