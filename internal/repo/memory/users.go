package memory

import (
	"context"
	"strings"
	"time"

	"github.com/geocoder89/reviewhub/internal/domain/job"
	"github.com/geocoder89/reviewhub/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

// checkUnique must be called with mu held.
func (r *UsersRepo) checkUnique(u user.User) error {
	for _, existing := range r.s.users {
		if existing.ID == u.ID {
			continue
		}
		if existing.Username == u.Username {
			return user.ErrUsernameTaken
		}
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	return nil
}

func (r *UsersRepo) findBy(match func(user.User) bool) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	return r.findBy(func(u user.User) bool { return u.ID == id })
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	return r.findBy(func(u user.User) bool { return u.Username == username })
}

func (r *UsersRepo) List(_ context.Context, f user.ListFilter) ([]user.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := make([]user.User, 0)
	for _, id := range sortedIDs(r.s.users) {
		u := r.s.users[id]
		if f.Search != nil && *f.Search != "" &&
			!strings.Contains(strings.ToLower(u.Username), strings.ToLower(*f.Search)) {
			continue
		}
		matched = append(matched, u)
	}

	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.insert(u)
}

// insert must be called with mu held for writing.
func (r *UsersRepo) insert(u user.User) (user.User, error) {
	u.Email = strings.ToLower(u.Email)
	if u.Role == "" {
		u.Role = user.RoleUser
	}

	u.ID = 0
	if err := r.checkUnique(u); err != nil {
		return user.User{}, err
	}

	u.ID = r.s.nextID()
	u.DateJoined = time.Now().UTC()
	r.s.users[u.ID] = u
	return u, nil
}

func (r *UsersRepo) Update(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[u.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	u.Email = strings.ToLower(u.Email)
	if err := r.checkUnique(u); err != nil {
		return user.User{}, err
	}

	// profile updates never touch flags, code or join date
	current.Username = u.Username
	current.Email = u.Email
	current.FirstName = u.FirstName
	current.LastName = u.LastName
	current.Bio = u.Bio
	current.Role = u.Role

	r.s.users[u.ID] = current
	return current, nil
}

func (r *UsersRepo) Delete(_ context.Context, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, u := range r.s.users {
		if u.Username != username {
			continue
		}

		delete(r.s.users, id)
		for rid, rv := range r.s.reviews {
			if rv.AuthorID == id {
				r.s.deleteReview(rid)
			}
		}
		for cid, c := range r.s.comments {
			if c.AuthorID == id {
				delete(r.s.comments, cid)
			}
		}
		return nil
	}
	return user.ErrNotFound
}

func (r *UsersRepo) IssueConfirmationCode(
	_ context.Context,
	email string,
	codeHash string,
	delivery func(u user.User) (job.CreateRequest, error),
) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var (
		u     user.User
		found bool
	)
	for _, existing := range r.s.users {
		if existing.Email == email {
			u, found = existing, true
			break
		}
	}

	if !found {
		var err error
		u, err = r.insert(user.User{Username: email, Email: email, Role: user.RoleUser})
		if err != nil {
			return user.User{}, err
		}
	}

	u.ConfirmationCodeHash = &codeHash

	req, err := delivery(u)
	if err != nil {
		if !found {
			delete(r.s.users, u.ID)
		}
		return user.User{}, err
	}

	r.s.users[u.ID] = u
	j := job.New(req)
	r.s.jobs[j.ID] = j

	return u, nil
}

func (r *UsersRepo) ConsumeConfirmationCode(
	_ context.Context,
	email string,
	check func(hash string) error,
) (user.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, u := range r.s.users {
		if u.Email != email {
			continue
		}

		if u.ConfirmationCodeHash == nil || check(*u.ConfirmationCodeHash) != nil {
			return user.User{}, user.ErrInvalidConfirmationCode
		}

		u.ConfirmationCodeHash = nil
		r.s.users[id] = u
		return u, nil
	}
	return user.User{}, user.ErrNotFound
}
