//go:build !linux

package panel

// Panel is unavailable without the Linux GPIO character device
type Panel struct{}

func Open(cfg Config, fire func(cmd byte)) (*Panel, error) {
	if _, err := Commands(cfg.Buttons); err != nil {
		return nil, err
	}
	return nil, ErrUnsupported
}

func (p *Panel) Close() error {
	return nil
}
