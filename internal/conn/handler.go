package conn

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fortrec/fortrec/internal/cases"
	"github.com/fortrec/fortrec/internal/document"
	"github.com/fortrec/fortrec/internal/emit"
	"github.com/fortrec/fortrec/internal/lines"
	"github.com/fortrec/fortrec/internal/runner"
	"github.com/fortrec/fortrec/internal/scanner"
)

type RequestAction string

const (
	RequestActionScan      RequestAction = "scan"
	RequestActionExtract   RequestAction = "extract"
	RequestActionListCases RequestAction = "listCases"
)

type Request struct {
	Action RequestAction `json:"action"`
}

type Response struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func NewErrorResponse(status int, err string) Response {
	return Response{Message: err, Status: status}
}

func NewResponse(status int, message string, data any) Response {
	return Response{Data: data, Message: message, Status: status}
}

func (s *Service) Dispatch(raw []byte) Response {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	switch req.Action {
	case RequestActionScan:
		return s.ScanReqHandler(raw)
	case RequestActionExtract:
		return s.ExtractReqHandler(raw)
	case RequestActionListCases:
		return s.ListCasesReqHandler(raw)
	}
	return NewErrorResponse(http.StatusBadRequest, "unknown action "+string(req.Action))
}

type ScanRequest struct {
	Source string `json:"source"`
}

func (s *Service) ScanReqHandler(raw []byte) Response {
	var req ScanRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	descriptors := scanner.Scan(req.Source, scanner.Options{Channel: s.Opts.Channel})
	data := make([]map[string]any, 0, len(descriptors))
	for _, desc := range descriptors {
		entry := map[string]any{
			"line":      desc.LineNumber,
			"stmt":      desc.RawText,
			"variables": desc.Variables,
		}
		if desc.IsConditional {
			entry["condition"] = desc.ConditionText
		}
		data = append(data, entry)
	}
	return NewResponse(http.StatusOK, "scanned source", data)
}

type ExtractRequest struct {
	CaseId  string `json:"caseId"`
	Source  string `json:"source"`
	Dataset string `json:"dataset"`
}

type ExtractResult struct {
	Yaml       string          `json:"yaml"`
	Unresolved []string        `json:"unresolved"`
	Diags      []document.Diag `json:"diagnostics"`
	Incomplete bool            `json:"incomplete"`
}

func (s *Service) ExtractReqHandler(raw []byte) Response {
	var req ExtractRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	if req.CaseId == "" {
		req.CaseId = "adhoc"
	}

	data_lines := lines.Scan(strings.NewReader(req.Dataset), lines.Options{CommentMarker: s.Opts.CommentMarker})
	dataset := runner.Extract(req.CaseId, req.Source, data_lines, s.Opts)

	out, err := emit.Marshal(document.Project(dataset))
	if err != nil {
		return NewErrorResponse(http.StatusInternalServerError, err.Error())
	}
	return NewResponse(http.StatusOK, "extracted "+req.CaseId, ExtractResult{
		Yaml:       string(out),
		Unresolved: dataset.Unresolved,
		Diags:      dataset.Diags,
		Incomplete: dataset.Incomplete(),
	})
}

type ListCasesRequest struct {
	Chapter string `json:"chapter"`
}

func (s *Service) ListCasesReqHandler(raw []byte) Response {
	var req ListCasesRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	store := cases.NewStore(s.Root)
	chapters := []string{req.Chapter}
	if req.Chapter == "" {
		all, err := store.Chapters()
		if err != nil {
			return NewErrorResponse(http.StatusNotFound, err.Error())
		}
		chapters = all
	}

	ids := []string{}
	for _, chapter := range chapters {
		found, _, err := store.List(chapter)
		if err != nil {
			return NewErrorResponse(http.StatusNotFound, err.Error())
		}
		for _, c := range found {
			ids = append(ids, c.Id)
		}
	}
	return NewResponse(http.StatusOK, "listed cases", ids)
}
