package pickers

import (
	"encoding/json"
	"errors"
	"html"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/goliatone/go-picker/internal/logger"
	"github.com/goliatone/go-picker/pkg/picker"
	"github.com/goliatone/go-picker/pkg/resolver"
	"github.com/goliatone/go-picker/pkg/sidechannel"
)

const (
	actionOptions = "options"
	actionResolve = "resolve"
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

type optionsResponse struct {
	Data []Option `json:"data"`
}

type resolveResponse struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Strategy string `json:"strategy"`
	FreeText bool   `json:"freeText"`
	// Display is the markup-free rendering of a free-text value. ID and Label
	// carry the value exactly as submitted.
	Display string `json:"display,omitempty"`
}

// maxMemory bounds multipart parsing; the body itself is capped by MaxBodyBytes.
const maxMemory = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return HandlerWithOptions(NewOptions(fns...))
}

// HandlerWithOptions builds a handler from a pre-constructed Options value.
// The picker name and action are read from the last two path segments, so the
// handler works under any mount path.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		name, action, ok := splitRoute(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "unknown route")
			return
		}

		switch action {
		case actionOptions:
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
				http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
				return
			}
		case actionResolve:
			if r.Method != http.MethodPost {
				w.Header().Set("Allow", http.MethodPost)
				http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
				return
			}
		default:
			writeError(w, http.StatusNotFound, "not_found", "unknown route")
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}

		p, ok := opts.Pickers[name]
		if !ok {
			writeError(w, http.StatusNotFound, "unknown_picker", "unknown picker "+strconv.Quote(name))
			return
		}

		if action == actionOptions {
			serveOptions(w, r, p, opts)
			return
		}
		serveResolve(w, r, p, opts)
	})
}

func serveOptions(w http.ResponseWriter, r *http.Request, p *picker.Picker, opts Options) {
	query := r.URL.Query().Get(opts.SearchParam)
	limit := parseInt(r.URL.Query().Get(opts.LimitParam))

	results := SearchOptions(p.Choices(), query, limit, opts)
	if results == nil {
		results = []Option{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(optionsResponse{Data: results})
}

func serveResolve(w http.ResponseWriter, r *http.Request, p *picker.Picker, opts Options) {
	logger := opts.Logger
	if l, ok := logpkg.Lookup(r.Context()); ok {
		logger = l
	}

	r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBodyBytes)
	carried, err := decodeCarried(r, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	res, err := p.Resolve(carried)
	if err != nil {
		code := resolver.Code(err)
		logger.Debug("resolve rejected",
			zap.String("picker", p.Name()),
			zap.String("code", code),
			zap.Error(err),
		)
		writeError(w, http.StatusUnprocessableEntity, code, err.Error())
		return
	}

	payload := resolveResponse{
		ID:       res.ID,
		Label:    res.Label,
		Strategy: string(res.Strategy),
		FreeText: res.FreeText,
	}
	if res.FreeText {
		payload.Display = html.UnescapeString(sanitizeFreeText(res.Label))
	}
	writeJSON(w, http.StatusOK, payload)
}

// decodeCarried reads {"value","companion"} from a JSON body, or the form
// field and its hidden companion (see sidechannel.CompanionName) from a form
// body.
func decodeCarried(r *http.Request, opts Options) (sidechannel.Value, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return sidechannel.Value{}, errors.New("invalid form body")
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return sidechannel.Value{}, errors.New("invalid form body")
		}
	default:
		var carried sidechannel.Value
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&carried); err != nil {
			return sidechannel.Value{}, errors.New("invalid JSON body")
		}
		return carried, nil
	}
	return sidechannel.FromForm(r.PostForm, opts.FormField, sidechannel.CompanionName(opts.FormField)), nil
}

func splitRoute(path string) (name, action string, ok bool) {
	path = strings.Trim(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", "", false
	}
	action = path[idx+1:]
	rest := path[:idx]
	if j := strings.LastIndex(rest, "/"); j >= 0 {
		rest = rest[j+1:]
	}
	if rest == "" {
		return "", "", false
	}
	return rest, action, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}

func parseInt(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
