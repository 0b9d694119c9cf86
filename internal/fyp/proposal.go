package fyp

import (
	"strings"

	"github.com/ghaggin/fypportal/internal/model"
)

const DuplicateTitleMessage = "This project title is already submitted for another supervisor. Please choose a unique title."

// DuplicateTitle reports whether title was already proposed to a supervisor
// other than supervisorID. Titles compare trimmed and case-insensitively;
// resubmitting to the same supervisor is allowed.
func DuplicateTitle(proposals []model.Proposal, title string, supervisorID int) bool {
	title = normalizeTitle(title)
	if title == "" || supervisorID <= 0 {
		return false
	}
	for _, p := range proposals {
		if normalizeTitle(p.Title) != title {
			continue
		}
		if p.Supervisor == nil || *p.Supervisor != supervisorID {
			return true
		}
	}
	return false
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RedirectFor is where a freshly logged in user is sent.
func RedirectFor(u *model.User) string {
	if u == nil {
		return "/"
	}
	return u.Role.DashboardPath()
}
