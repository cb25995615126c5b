package models

// Privileges is the flag set the identity provider exposes for an actor.
type Privileges struct {
	BaseUser bool `json:"base_user"`
	Reviewer bool `json:"reviewer"`
	Editor   bool `json:"editor"`
	Admin    bool `json:"admin"`
	Creator  bool `json:"creator"`
}

// Actor is an authenticated contributor resolved from the request context.
type Actor struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Privileges Privileges `json:"privileges"`
}

// CanSubmit reports whether the actor may propose edits at all. Reporting a
// proposal revokes this.
func (a Actor) CanSubmit() bool { return a.Privileges.BaseUser }

// CanReview reports whether the actor may accept, decline, or report
// proposals.
func (a Actor) CanReview() bool { return a.Privileges.Reviewer || a.Privileges.Creator }

// CanBypassReview reports whether the actor's submissions auto-accept.
func (a Actor) CanBypassReview() bool { return a.Privileges.Editor }

// CanAdminister reports whether the actor may create records and manage
// users.
func (a Actor) CanAdminister() bool { return a.Privileges.Admin || a.Privileges.Creator }
