package errors

import (
	"encoding/json"
	"net/http"
)

//ProblemDetails stores details about a certain problem according to RFC7807
//See https://tools.ietf.org/html/rfc7807
type ProblemDetails interface {
	ContentType() string
	ResponseCode() int
	MarshalJSON() ([]byte, error)
	WriteResponse(w http.ResponseWriter)
}

//ProblemDetailsImpl is an implementation of the ProblemDetails interface
type ProblemDetailsImpl struct {
	typ     string
	title   string
	detail  string
	code    int
	traceID string
}

const (
	//ProblemReportContentType as required by https://tools.ietf.org/html/rfc7807
	ProblemReportContentType string = "application/problem+json"

	problemTypeBase string = "https://railstats.dev/problems/"
)

func newProblem(typ, title, detail string, code int, traceID string) *ProblemDetailsImpl {
	return &ProblemDetailsImpl{
		typ:     problemTypeBase + typ,
		title:   title,
		detail:  detail,
		code:    code,
		traceID: traceID,
	}
}

//NewBadRequestData reports that the request includes input data which does not meet the requirements of the operation
func NewBadRequestData(detail, traceID string) *ProblemDetailsImpl {
	return newProblem("BadRequestData", "Bad Request Data", detail, http.StatusBadRequest, traceID)
}

func ReportNewBadRequestData(w http.ResponseWriter, detail, traceID string) {
	NewBadRequestData(detail, traceID).WriteResponse(w)
}

//NewInvalidJSON reports that a document body could not be parsed
func NewInvalidJSON(detail, traceID string) *ProblemDetailsImpl {
	return newProblem("InvalidJSON", "Invalid JSON", detail, http.StatusBadRequest, traceID)
}

func ReportNewInvalidJSON(w http.ResponseWriter, detail, traceID string) {
	NewInvalidJSON(detail, traceID).WriteResponse(w)
}

func NewNotFound(detail, traceID string) *ProblemDetailsImpl {
	return newProblem("ResourceNotFound", "Not Found", detail, http.StatusNotFound, traceID)
}

func ReportNotFoundError(w http.ResponseWriter, detail, traceID string) {
	NewNotFound(detail, traceID).WriteResponse(w)
}

//NewConflict reports that the request can not be handled in the current state of the resource
func NewConflict(detail, traceID string) *ProblemDetailsImpl {
	return newProblem("Conflict", "Conflict", detail, http.StatusConflict, traceID)
}

func ReportConflict(w http.ResponseWriter, detail, traceID string) {
	NewConflict(detail, traceID).WriteResponse(w)
}

//NewBadGateway reports that a backing store failed to serve the request
func NewBadGateway(detail, traceID string) *ProblemDetailsImpl {
	return newProblem("StoreFailure", "Store Failure", detail, http.StatusBadGateway, traceID)
}

func ReportBadGateway(w http.ResponseWriter, detail, traceID string) {
	NewBadGateway(detail, traceID).WriteResponse(w)
}

func NewInternalProblem(detail, traceID string) *ProblemDetailsImpl {
	return newProblem("InternalError", "Internal Error", detail, http.StatusInternalServerError, traceID)
}

func ReportNewInternalError(w http.ResponseWriter, detail, traceID string) {
	NewInternalProblem(detail, traceID).WriteResponse(w)
}

func NewUnauthorizedRequest(detail, traceID string) *ProblemDetailsImpl {
	return newProblem("UnauthorizedRequest", "Unauthorized Request", detail, http.StatusUnauthorized, traceID)
}

func ReportUnauthorizedRequest(w http.ResponseWriter, detail, traceID string) {
	NewUnauthorizedRequest(detail, traceID).WriteResponse(w)
}

// ReportError writes the problem report matching the kind of err
func ReportError(w http.ResponseWriter, err error, traceID string) {
	var problem *ProblemDetailsImpl

	switch {
	case Is(err, ErrNotFound), Is(err, ErrUnknownSession):
		problem = NewNotFound(err.Error(), traceID)
	case Is(err, ErrParse), Is(err, ErrInvalidDocument):
		problem = NewInvalidJSON(err.Error(), traceID)
	case Is(err, ErrBadRequest), Is(err, ErrUnknownField):
		problem = NewBadRequestData(err.Error(), traceID)
	case Is(err, ErrSaveInProgress), Is(err, ErrSessionClosed):
		problem = NewConflict(err.Error(), traceID)
	case Is(err, ErrFetch), Is(err, ErrSave):
		problem = NewBadGateway(err.Error(), traceID)
	default:
		problem = NewInternalProblem(err.Error(), traceID)
	}

	problem.WriteResponse(w)
}

//ContentType returns the ContentType to be used when returning this problem
func (p *ProblemDetailsImpl) ContentType() string {
	return ProblemReportContentType
}

func (p *ProblemDetailsImpl) Type() string   { return p.typ }
func (p *ProblemDetailsImpl) Title() string  { return p.title }
func (p *ProblemDetailsImpl) Detail() string { return p.detail }

//MarshalJSON is called when a ProblemDetailsImpl instance should be serialized to JSON
func (p *ProblemDetailsImpl) MarshalJSON() ([]byte, error) {
	var traceID *string

	if p.traceID != "" {
		traceID = &p.traceID
	}

	return json.Marshal(struct {
		Type    string  `json:"type"`
		Title   string  `json:"title"`
		Detail  string  `json:"detail"`
		TraceID *string `json:"traceID,omitempty"`
	}{
		Type:    p.typ,
		Title:   p.title,
		Detail:  p.detail,
		TraceID: traceID,
	})
}

//ResponseCode returns the HTTP response code to be used when returning a specific problem
func (p *ProblemDetailsImpl) ResponseCode() int {
	if p.code != 0 {
		return p.code
	}

	return http.StatusBadRequest
}

//WriteResponse writes the contents of this instance to a http.ResponseWriter
func (p *ProblemDetailsImpl) WriteResponse(w http.ResponseWriter) {
	w.Header().Add("Content-Type", p.ContentType())
	w.Header().Add("Content-Language", "en")
	w.WriteHeader(p.ResponseCode())

	pdbytes, err := json.MarshalIndent(p, "", "  ")
	if err == nil {
		w.Write(pdbytes)
	}
}
