package access

import "github.com/tendant/gym-access/pkg/domain"

// CheckBranch returns ok when the branch accepts members. A nil status means
// no record exists and is treated as open. On denial the branch's reason is
// returned when present.
func CheckBranch(status *domain.BranchStatus) (ok bool, reason *string) {
	if status == nil || status.Status == domain.BranchOpen {
		return true, nil
	}
	return false, status.Reason
}
