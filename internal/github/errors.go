package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mtlprog/pludo/internal/hostapi"
)

var (
	// ErrNoBranch is returned when neither main nor master exists.
	ErrNoBranch = errors.New("repository has no main or master branch")
	// ErrFileTooLarge is returned for files over the configured blob size limit.
	ErrFileTooLarge = errors.New("file exceeds blob size limit")
	// ErrInvalidRepoName is returned for a malformed "owner/name".
	ErrInvalidRepoName = errors.New("repository full name must be owner/name")
)

// decodeError reads GitHub's {message, errors?: [...]} payload. Entries of
// errors may be strings or objects.
func decodeError(body []byte) (string, []string) {
	var payload struct {
		Message string            `json:"message"`
		Errors  []json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}

	var details []string
	for _, raw := range payload.Errors {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			details = append(details, s)
			continue
		}
		var obj struct {
			Resource string `json:"resource"`
			Field    string `json:"field"`
			Code     string `json:"code"`
			Message  string `json:"message"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}
		if obj.Message != "" {
			details = append(details, obj.Message)
			continue
		}
		details = append(details, strings.Trim(fmt.Sprintf("%s.%s: %s", obj.Resource, obj.Field, obj.Code), ". :"))
	}
	return payload.Message, details
}

func hint(op string, kind hostapi.Kind) string {
	switch kind {
	case hostapi.KindPermission:
		if op == "delete repository" {
			return "Check that the GitHub token is valid and has the delete_repo scope"
		}
		return "Check that the GitHub token is valid and has the repo scope"
	case hostapi.KindNotFound:
		return "Check the repository owner and that the token can access it"
	case hostapi.KindConflict:
		if op == "update ref" {
			return "The branch moved during upload; retry the upload"
		}
		return "The repository is empty or in a conflicting state; retry in a few seconds"
	case hostapi.KindValidation:
		if op == "create repository" {
			return "A repository with this name may already exist under the account"
		}
		return "GitHub rejected the request payload"
	default:
		return ""
	}
}
