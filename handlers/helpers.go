// Package handlers is the HTTP surface: thin adapters that decode requests,
// call a service and map its errors onto status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/laurierboom/tournament-engine/repositories"
	"github.com/laurierboom/tournament-engine/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func idParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

func errorResponse(w http.ResponseWriter, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		slog.Error("failed to write error response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter) {
	errorResponse(w, http.StatusNotFound, "the requested resource could not be found")
}

func conflictResponse(w http.ResponseWriter, message string) {
	errorResponse(w, http.StatusConflict, message)
}

func serverErrorResponse(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

// mapServiceErrorToHTTP translates service and repository errors into HTTP
// responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound),
		errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrRoundNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrParticipantNotRegistered),
		errors.Is(err, repositories.ErrStandingsNotFound):
		notFoundResponse(w)

	case errors.Is(err, repositories.ErrParticipantAlreadyRegistered),
		errors.Is(err, repositories.ErrPlayerFideIDInUse),
		errors.Is(err, repositories.ErrPlayerHasMatches),
		errors.Is(err, repositories.ErrTournamentHasRounds),
		errors.Is(err, repositories.ErrRoundAlreadyExists),
		errors.Is(err, services.ErrTournamentAlreadyStarted),
		errors.Is(err, services.ErrTournamentNotStarted),
		errors.Is(err, services.ErrTournamentCompleted),
		errors.Is(err, services.ErrRosterFrozen),
		errors.Is(err, services.ErrRoundNotFinished),
		errors.Is(err, services.ErrRoundAlreadyClosed),
		errors.Is(err, services.ErrByeMatchImmutable),
		errors.Is(err, services.ErrResultRoundCompleted):
		conflictResponse(w, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrTournamentNameRequired),
		errors.Is(err, services.ErrInvalidFormat),
		errors.Is(err, services.ErrInvalidTimeControl),
		errors.Is(err, services.ErrSwissRoundsRequired),
		errors.Is(err, services.ErrNotEnoughPlayers),
		errors.Is(err, services.ErrInvalidResult),
		errors.Is(err, repositories.ErrPlayerNameRequired):
		badRequestResponse(w, err)

	default:
		serverErrorResponse(w, err)
	}
}
