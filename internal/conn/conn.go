// Package conn exposes extraction over a websocket endpoint, so an
// interactive client can scan sources, extract datasets and browse
// cases without shelling out to the CLI. The core pipeline never
// depends on this package.
package conn

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/fortrec/fortrec/internal/runner"
	"github.com/fortrec/fortrec/pkg"
)

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 10,
	WriteBufferSize: 1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Service struct {
	Opts runner.Options
	// Root is the benchmark tree the listCases action walks; extract
	// and scan work on request payloads and don't need it.
	Root string
}

func NewService(root string, opts runner.Options) *Service {
	return &Service{Opts: opts, Root: root}
}

func (s *Service) Listen(port int) {
	exit := make(chan os.Signal, 2)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", s.HandleConnection)

	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			pkg.FatalLog(err)
		}
	}()

	pkg.InfoLog("fortrec service listening on port", port)
	<-exit
	pkg.DebugLog("Shutting down...")
	server.Shutdown(context.Background())
}

func (s *Service) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog("websocket upgrade failed;", err)
		return
	}
	defer conn.Close()
	defer pkg.InfoLog("Connection closed from", conn.RemoteAddr())

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("conn read error", err)
			}
			return
		}

		res := s.Dispatch(raw)
		if err := conn.WriteJSON(res); err != nil {
			pkg.ErrorLog("conn write error", err)
			return
		}
	}
}
