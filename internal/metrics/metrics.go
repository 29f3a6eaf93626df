package metrics

import (
	"net/http"

	"github.com/arl/statsviz"
)

// Serve 在独立端口挂运行时可视化（/debug/statsviz/）。
func Serve(addr string) error {
	mux := http.NewServeMux()
	if err := statsviz.Register(mux); err != nil {
		return err
	}
	return http.ListenAndServe(addr, mux)
}
