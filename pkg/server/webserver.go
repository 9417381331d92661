package server

import (
	"errors"
	"net/http"
	"net/http/pprof"

	"github.com/matst80/slask-crossfilter/pkg/common"
	"github.com/matst80/slask-crossfilter/pkg/crossfilter"
	"github.com/matst80/slask-crossfilter/pkg/state"
	"github.com/matst80/slask-crossfilter/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	noSelections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crossfilter_http_selections_total",
		Help: "The total number of selections received over http",
	})
)

type WebServer struct {
	Dispatcher *crossfilter.Dispatcher
	State      state.Store
}

type SelectionResponse struct {
	Event   string              `json:"event"`
	Outcome crossfilter.Outcome `json:"outcome"`
	Count   int                 `json:"count"`
}

type StateResponse struct {
	Count int      `json:"count"`
	Ids   []string `json:"ids"`
}

type ChartResponse struct {
	Chart    string   `json:"chart"`
	Id       string   `json:"id"`
	IdColumn string   `json:"idColumn"`
	Mode     string   `json:"mode"`
	Column   string   `json:"column,omitempty"`
	Status   string   `json:"status"`
	Last     []string `json:"last,omitempty"`
}

// Selection dispatches a posted selection. It changes shared state, so
// only POST is accepted.
func (ws *WebServer) Selection(w http.ResponseWriter, r *http.Request) (any, error) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		return nil, common.MethodNotAllowed(r)
	}
	req := SelectionRequest{}
	if err := GetSelectionFromRequest(r, &req); err != nil {
		return nil, common.BadRequest(err)
	}
	noSelections.Inc()
	event := req.Event()
	outcome, err := ws.Dispatcher.Dispatch(r.Context(), event)
	if errors.Is(err, types.ErrUnknownChart) {
		return nil, common.NotFound(err)
	}
	if err != nil {
		return nil, err
	}
	ids, err := ws.State.Load(r.Context())
	if err != nil {
		return nil, err
	}
	return SelectionResponse{
		Event:   event.Id,
		Outcome: outcome,
		Count:   ids.Len(),
	}, nil
}

func (ws *WebServer) GetState(w http.ResponseWriter, r *http.Request) (any, error) {
	ids, err := ws.State.Load(r.Context())
	if err != nil {
		return nil, err
	}
	return StateResponse{
		Count: ids.Len(),
		Ids:   ids.Values(),
	}, nil
}

func (ws *WebServer) Charts(w http.ResponseWriter, r *http.Request) (any, error) {
	charts := ws.Dispatcher.Charts()
	ret := make([]ChartResponse, 0, len(charts))
	for _, chart := range charts {
		reg, ok := ws.Dispatcher.Registration(chart)
		if !ok {
			continue
		}
		ret = append(ret, ChartResponse{
			Chart:    reg.Chart,
			Id:       reg.Id,
			IdColumn: reg.IdColumn,
			Mode:     reg.Filter.Mode().String(),
			Column:   reg.Filter.MatchColumn(),
			Status:   reg.Status().String(),
			Last:     reg.LastSelection(),
		})
	}
	return ret, nil
}

func (ws *WebServer) Handle(enableProfiling bool) *http.ServeMux {
	srv := http.NewServeMux()

	srv.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	srv.Handle("/metrics", promhttp.Handler())

	srv.HandleFunc("/selection", common.JsonHandler(ws.Selection))
	srv.HandleFunc("/state", common.JsonHandler(ws.GetState))
	srv.HandleFunc("/charts", common.JsonHandler(ws.Charts))

	if enableProfiling {
		srv.HandleFunc("/debug/pprof/", pprof.Index)
		srv.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		srv.HandleFunc("/debug/pprof/profile", pprof.Profile)
		srv.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		srv.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return srv
}
