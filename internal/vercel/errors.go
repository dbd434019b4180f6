package vercel

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mtlprog/pludo/internal/hostapi"
)

var (
	// ErrNoDeployment means no deployment appeared for the project in time.
	ErrNoDeployment = errors.New("no deployment was triggered for the project")
	// ErrDeploymentFailed means the build finished in the ERROR state.
	ErrDeploymentFailed = errors.New("deployment failed")
	// ErrDeploymentCanceled means the build was canceled on the host.
	ErrDeploymentCanceled = errors.New("deployment was canceled")
	// ErrDeploymentTimeout means the build did not finish within the wait budget.
	ErrDeploymentTimeout = errors.New("deployment did not finish in time")
)

// DeploymentError wraps a wait failure with a link the user can follow to
// recover manually.
type DeploymentError struct {
	Err          error
	DeploymentID string
	DashboardURL string
}

func (e *DeploymentError) Error() string {
	msg := e.Err.Error()
	if e.DeploymentID != "" {
		msg = fmt.Sprintf("%s (deployment %s)", msg, e.DeploymentID)
	}
	if e.DashboardURL != "" {
		msg = fmt.Sprintf("%s; check %s", msg, e.DashboardURL)
	}
	return msg
}

func (e *DeploymentError) Unwrap() error {
	return e.Err
}

// decodeError reads the host's {error: {code, message}} payload.
func decodeError(body []byte) (string, []string) {
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}
	var details []string
	if payload.Error.Code != "" {
		details = append(details, payload.Error.Code)
	}
	return payload.Error.Message, details
}

func hint(op string, kind hostapi.Kind) string {
	switch kind {
	case hostapi.KindPermission:
		return "Check that the Vercel token is valid and belongs to the configured team"
	case hostapi.KindNotFound:
		return "Check the project id and team scope"
	case hostapi.KindConflict:
		return "A project or domain with this name already exists"
	case hostapi.KindValidation:
		if op == "create project" {
			return "Check that the Vercel GitHub integration can access the repository"
		}
		return "Vercel rejected the request payload"
	default:
		return ""
	}
}
