package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
	"github.com/matst80/slask-crossfilter/pkg/types"
)

type SelectionRequest struct {
	Chart   string   `json:"chart" schema:"chart,required"`
	Values  []string `json:"values" schema:"value"`
	Initial bool     `json:"initial" schema:"initial"`
}

var ErrMissingChart = errors.New("chart is required")

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// GetSelectionFromRequest reads a posted selection, either a JSON body or
// a url encoded form.
func GetSelectionFromRequest(r *http.Request, req *SelectionRequest) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return selectionFromJson(r, req)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	return selectionFromQuery(r.PostForm, req)
}

func selectionFromJson(r *http.Request, req *SelectionRequest) error {
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(req); err != nil {
		return err
	}
	if req.Chart == "" {
		return ErrMissingChart
	}
	req.Values = splitValues(req.Values)
	return nil
}

// selectionFromQuery decodes chart, value and initial.
func selectionFromQuery(query url.Values, req *SelectionRequest) error {
	if err := decoder.Decode(req, query); err != nil {
		return err
	}
	req.Values = splitValues(req.Values)
	return nil
}

// splitValues expands values carrying several selections separated by "||".
func splitValues(in []string) []string {
	values := make([]string, 0, len(in))
	for _, v := range in {
		if strings.Contains(v, "||") {
			values = append(values, strings.Split(v, "||")...)
		} else {
			values = append(values, v)
		}
	}
	return values
}

func (req *SelectionRequest) Event() types.SelectionEvent {
	return types.SelectionEvent{
		Id:      uuid.NewString(),
		Chart:   req.Chart,
		Values:  req.Values,
		Initial: req.Initial,
		Time:    time.Now(),
	}
}
