package handlers_test

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/reviewhub/internal/domain/comment"
	"github.com/geocoder89/reviewhub/internal/domain/job"
	"github.com/geocoder89/reviewhub/internal/domain/review"
	"github.com/geocoder89/reviewhub/internal/domain/title"
	"github.com/geocoder89/reviewhub/internal/domain/user"
	"github.com/geocoder89/reviewhub/internal/http/middlewares"
	"github.com/geocoder89/reviewhub/internal/policy"
)

func withActor(actor policy.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		middlewares.SetActor(c, actor)
		c.Next()
	}
}

type fakeTitles struct {
	listFn   func(ctx context.Context, f title.ListFilter) ([]title.Title, int, error)
	getFn    func(ctx context.Context, id int64) (title.Title, error)
	createFn func(ctx context.Context, w title.Write) (title.Title, error)
	updateFn func(ctx context.Context, id int64, w title.Write) (title.Title, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (f fakeTitles) List(ctx context.Context, filter title.ListFilter) ([]title.Title, int, error) {
	return f.listFn(ctx, filter)
}

func (f fakeTitles) GetByID(ctx context.Context, id int64) (title.Title, error) {
	return f.getFn(ctx, id)
}

func (f fakeTitles) Create(ctx context.Context, w title.Write) (title.Title, error) {
	return f.createFn(ctx, w)
}

func (f fakeTitles) Update(ctx context.Context, id int64, w title.Write) (title.Title, error) {
	return f.updateFn(ctx, id, w)
}

func (f fakeTitles) Delete(ctx context.Context, id int64) error {
	return f.deleteFn(ctx, id)
}

type fakeComments struct {
	listFn   func(ctx context.Context, f comment.ListFilter) ([]comment.Comment, int, error)
	getFn    func(ctx context.Context, titleID, reviewID, id int64) (comment.Comment, error)
	createFn func(ctx context.Context, titleID, reviewID, authorID int64, req comment.CreateRequest) (comment.Comment, error)
	updateFn func(ctx context.Context, titleID int64, c comment.Comment) (comment.Comment, error)
	deleteFn func(ctx context.Context, titleID, reviewID, id int64) error
}

func (f fakeComments) List(ctx context.Context, filter comment.ListFilter) ([]comment.Comment, int, error) {
	return f.listFn(ctx, filter)
}

func (f fakeComments) Get(ctx context.Context, titleID, reviewID, id int64) (comment.Comment, error) {
	return f.getFn(ctx, titleID, reviewID, id)
}

func (f fakeComments) Create(ctx context.Context, titleID, reviewID, authorID int64, req comment.CreateRequest) (comment.Comment, error) {
	return f.createFn(ctx, titleID, reviewID, authorID, req)
}

func (f fakeComments) Update(ctx context.Context, titleID int64, c comment.Comment) (comment.Comment, error) {
	return f.updateFn(ctx, titleID, c)
}

func (f fakeComments) Delete(ctx context.Context, titleID, reviewID, id int64) error {
	return f.deleteFn(ctx, titleID, reviewID, id)
}

type fakeReviews struct {
	listFn   func(ctx context.Context, f review.ListFilter) ([]review.Review, int, error)
	getFn    func(ctx context.Context, titleID, id int64) (review.Review, error)
	createFn func(ctx context.Context, titleID, authorID int64, req review.CreateRequest) (review.Review, error)
	updateFn func(ctx context.Context, rv review.Review) (review.Review, error)
	deleteFn func(ctx context.Context, titleID, id int64) error
}

func (f fakeReviews) List(ctx context.Context, filter review.ListFilter) ([]review.Review, int, error) {
	return f.listFn(ctx, filter)
}

func (f fakeReviews) Get(ctx context.Context, titleID, id int64) (review.Review, error) {
	return f.getFn(ctx, titleID, id)
}

func (f fakeReviews) Create(ctx context.Context, titleID, authorID int64, req review.CreateRequest) (review.Review, error) {
	return f.createFn(ctx, titleID, authorID, req)
}

func (f fakeReviews) Update(ctx context.Context, rv review.Review) (review.Review, error) {
	return f.updateFn(ctx, rv)
}

func (f fakeReviews) Delete(ctx context.Context, titleID, id int64) error {
	return f.deleteFn(ctx, titleID, id)
}

type fakeUsers struct {
	getByIDFn       func(ctx context.Context, id int64) (user.User, error)
	getByUsernameFn func(ctx context.Context, username string) (user.User, error)
	listFn          func(ctx context.Context, f user.ListFilter) ([]user.User, int, error)
	createFn        func(ctx context.Context, u user.User) (user.User, error)
	updateFn        func(ctx context.Context, u user.User) (user.User, error)
	deleteFn        func(ctx context.Context, username string) error
}

func (f fakeUsers) GetByID(ctx context.Context, id int64) (user.User, error) {
	return f.getByIDFn(ctx, id)
}

func (f fakeUsers) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return f.getByUsernameFn(ctx, username)
}

func (f fakeUsers) List(ctx context.Context, filter user.ListFilter) ([]user.User, int, error) {
	return f.listFn(ctx, filter)
}

func (f fakeUsers) Create(ctx context.Context, u user.User) (user.User, error) {
	return f.createFn(ctx, u)
}

func (f fakeUsers) Update(ctx context.Context, u user.User) (user.User, error) {
	return f.updateFn(ctx, u)
}

func (f fakeUsers) Delete(ctx context.Context, username string) error {
	return f.deleteFn(ctx, username)
}

type fakeConfirmations struct {
	issueFn   func(ctx context.Context, email, codeHash string, delivery func(u user.User) (job.CreateRequest, error)) (user.User, error)
	consumeFn func(ctx context.Context, email string, check func(hash string) error) (user.User, error)
}

func (f fakeConfirmations) IssueConfirmationCode(ctx context.Context, email, codeHash string, delivery func(u user.User) (job.CreateRequest, error)) (user.User, error) {
	return f.issueFn(ctx, email, codeHash, delivery)
}

func (f fakeConfirmations) ConsumeConfirmationCode(ctx context.Context, email string, check func(hash string) error) (user.User, error) {
	return f.consumeFn(ctx, email, check)
}

type fakeIssuer struct {
	token string
	err   error
}

func (f fakeIssuer) GenerateAccessToken(userID int64, username, role string) (string, error) {
	return f.token, f.err
}
