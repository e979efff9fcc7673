package filetail

import "github.com/bft-labs/cwship/pkg/cwship"

// WithFileTail returns a cwship Option that ships lines appended to files.
//
// Usage:
//
//	s, err := cwship.New(cfg,
//	    cwship.WithLogsClient(client),
//	    filetail.WithFileTail(filetail.Config{
//	        Files: map[string]string{"nginx": "/var/log/nginx/access.log"},
//	    }),
//	)
func WithFileTail(cfg Config) cwship.Option {
	return cwship.WithPlugin(New(cfg))
}
