package domain

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Profile field limits.
const (
	MaxDisplayNameLength = 100
	MaxBioLength         = 2000
)

// Common validation errors
var (
	ErrEmptyUserID      = fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	ErrEmptyDisplayName = fmt.Errorf("%w: display name cannot be empty", ErrValidation)
	ErrDisplayNameLong  = fmt.Errorf("%w: display name is too long", ErrValidation)
	ErrBioTooLong       = fmt.Errorf("%w: bio is too long", ErrValidation)
)

// User is a member of the exchange: a public profile plus the skills they
// offer to teach and the skills they want to learn. A skill may appear in
// both sets; the two are matched independently.
type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	TeachSkills SkillSet  `json:"teach_skills"`
	LearnSkills SkillSet  `json:"learn_skills"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PublicProfile is the projection of a user shown to other users.
type PublicProfile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	TeachSkills SkillSet  `json:"teach_skills"`
	LearnSkills SkillSet  `json:"learn_skills"`
}

// NewUser builds a validated user from raw skill labels.
// Skill labels are normalized; a malformed label fails with ErrInvalidSkill.
func NewUser(id uuid.UUID, displayName, bio string, teach, learn []string, now time.Time) (*User, error) {
	teachSet, err := NewSkillSet(teach...)
	if err != nil {
		return nil, err
	}
	learnSet, err := NewSkillSet(learn...)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:          id,
		DisplayName: displayName,
		Bio:         bio,
		TeachSkills: teachSet,
		LearnSkills: learnSet,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.DisplayName == "" {
		return ErrEmptyDisplayName
	}
	if utf8.RuneCountInString(u.DisplayName) > MaxDisplayNameLength {
		return ErrDisplayNameLong
	}
	if utf8.RuneCountInString(u.Bio) > MaxBioLength {
		return ErrBioTooLong
	}
	return nil
}

// Public returns the profile projection shared with other users.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		TeachSkills: u.TeachSkills.Clone(),
		LearnSkills: u.LearnSkills.Clone(),
	}
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	c := *u
	c.TeachSkills = u.TeachSkills.Clone()
	c.LearnSkills = u.LearnSkills.Clone()
	return &c
}
