package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"linkage-service/internal/config"
	"linkage-service/internal/fileio"
	"linkage-service/internal/linkage/engine"
	"linkage-service/internal/linkage/model"
	"linkage-service/internal/linkage/profile"
)

// response wraps the match set with an echo of the applied configuration,
// useful when debugging profiles from the UI or curl.
type response struct {
	Result  *model.MatchSet `json:"result"`
	Profile model.Config    `json:"profile"`
}

// Match handles POST /match: multipart upload of fileX and fileY (CSV, XLS
// or XLSX), a profile part (YAML or JSON), and optional scalar overrides.
func Match(cfg config.Config, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		log := logger
		if rid := r.Header.Get("X-Request-ID"); rid != "" {
			log = logger.With().Str("req_id", rid).Logger()
		}

		defer r.Body.Close()
		if err := r.ParseMultipartForm(int64(cfg.MaxUploadMB) << 20); err != nil {
			http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}

		prof, err := readProfile(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		applyOverrides(&prof, r)

		setX, err := readSide(r, "fileX", "x", prof.SchemaX)
		if err != nil {
			writeLoadError(w, err)
			return
		}
		setY, err := readSide(r, "fileY", "y", prof.SchemaY)
		if err != nil {
			writeLoadError(w, err)
			return
		}

		result, err := engine.Run(setX, setY, prof, log)
		if err != nil {
			var cfgErr *model.ConfigurationError
			var recErr *model.MalformedRecordError
			switch {
			case errors.As(err, &cfgErr), errors.As(err, &recErr):
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			default:
				log.Error().Err(err).Msg("match run")
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response{Result: result, Profile: prof}); err != nil {
			log.Error().Err(err).Msg("write json")
			return
		}

		log.Info().
			Int("records_x", len(setX.Records)).
			Int("records_y", len(setY.Records)).
			Int("links", len(result.Links)).
			Dur("elapsed", time.Since(start)).
			Msg("match done")
	}
}

func readProfile(r *http.Request) (model.Config, error) {
	if s := r.FormValue("profile"); s != "" {
		return profile.Parse([]byte(s))
	}
	f, _, err := r.FormFile("profile")
	if err != nil {
		return model.Config{}, errors.New("missing profile")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return model.Config{}, err
	}
	return profile.Parse(data)
}

// readSide loads one uploaded table into a record set. side is "x" or "y";
// form fields follow it: x_header_row, id_x, ...
func readSide(r *http.Request, part, side string, schema model.Schema) (*model.RecordSet, error) {
	f, hdr, err := r.FormFile(part)
	if err != nil {
		return nil, model.RecordErrorf(side, "missing upload %q", part)
	}
	defer f.Close()

	rows, err := fileio.ReadAnyMaps(f, hdr.Filename, atoi(r.FormValue(side+"_header_row"), 1))
	if err != nil {
		return nil, model.RecordErrorf(side, "read %s: %v", hdr.Filename, err)
	}
	return model.Load(side, rows, r.FormValue("id_"+side), schema)
}

func applyOverrides(cfg *model.Config, r *http.Request) {
	cfg.MatchThreshold = toFloat(r.FormValue("match_threshold"), cfg.MatchThreshold)
	cfg.PossibleThreshold = toFloat(r.FormValue("possible_threshold"), cfg.PossibleThreshold)
	if mode := r.FormValue("assignment_mode"); mode != "" {
		cfg.AssignmentMode = mode
	}
	if side := r.FormValue("many_side"); side != "" {
		cfg.ManySide = side
	}
}

func writeLoadError(w http.ResponseWriter, err error) {
	var recErr *model.MalformedRecordError
	if errors.As(err, &recErr) {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}
