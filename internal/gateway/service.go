// Package gateway produces the per-request allow/redirect decision. Every
// request passes through here before any handler runs.
package gateway

import (
	"context"
	"fmt"

	"chatgate/internal/routes"
	"chatgate/internal/session/models"
)

// Decision is the outcome for a single request. It is ephemeral and never
// persisted. RefreshedToken, when set, must be written back to the response.
type Decision struct {
	Allow          bool
	RedirectTo     string
	Identity       models.Identity
	RefreshedToken string
}

// SessionValidator resolves request credentials to an identity, failing
// closed to anonymous.
type SessionValidator interface {
	Validate(ctx context.Context, creds models.Credentials) models.Result
}

// Service combines session validation with route classification into a
// two-input decision table. The only fallible step is delegated to the
// validator, which already fails closed.
type Service struct {
	sessions    SessionValidator
	classifier  *routes.Classifier
	signInPath  string
	landingPath string
}

func New(sessions SessionValidator, classifier *routes.Classifier, signInPath, landingPath string) (*Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session validator is required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("route classifier is required")
	}
	if signInPath == "" || landingPath == "" {
		return nil, fmt.Errorf("sign-in and landing paths are required")
	}

	return &Service{
		sessions:    sessions,
		classifier:  classifier,
		signInPath:  signInPath,
		landingPath: landingPath,
	}, nil
}

// Decide evaluates the decision table:
//   - protected path + anonymous: redirect to sign-in
//   - auth-only path + authenticated: redirect to the landing page
//   - everything else: allow, with any rotated credential attached
func (s *Service) Decide(ctx context.Context, creds models.Credentials, path string) Decision {
	result := s.sessions.Validate(ctx, creds)
	class := s.classifier.Classify(path)

	switch {
	case class == routes.ClassProtected && result.Identity.IsAnonymous():
		return Decision{Allow: false, RedirectTo: s.signInPath}
	case class == routes.ClassAuthOnly && !result.Identity.IsAnonymous():
		return Decision{
			Allow:          false,
			RedirectTo:     s.landingPath,
			Identity:       result.Identity,
			RefreshedToken: result.RefreshedToken,
		}
	default:
		return Decision{
			Allow:          true,
			Identity:       result.Identity,
			RefreshedToken: result.RefreshedToken,
		}
	}
}
