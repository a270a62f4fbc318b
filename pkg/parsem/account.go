package parsem

import (
	"github.com/relvacode/iso8601"

	"github.com/parsem/go-client/pkg/request"
)

// Account describes the authorized account and its quota.
type Account struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Plan      string       `json:"plan"`
	CreatedAt iso8601.Time `json:"createdAt" readonly:"true"`
	Quota     Quota        `json:"quota"`
}

type Quota struct {
	MonthlyLimit int `json:"monthlyLimit"`
	Used         int `json:"used"`
}

// GetAccountRequest https://developers.parsem.com/#operation/getAccount
//
// It can be used to verify the API token.
func (a *API) GetAccountRequest() request.APIRequest[*Account] {
	account := &Account{}
	req := a.newRequest().
		WithResult(account).
		WithGet("account")
	return request.NewAPIRequest(account, req)
}
