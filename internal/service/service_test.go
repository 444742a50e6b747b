package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xxxsen/postboard/internal/auth"
	"github.com/xxxsen/postboard/internal/model"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
	"github.com/xxxsen/postboard/internal/pkg/jwt"
	"github.com/xxxsen/postboard/internal/repo"
	"github.com/xxxsen/postboard/test/testutil"
)

type fixture struct {
	users  UserStore
	posts  PostStore
	tokens *TokenService
	auth   *AuthService
	post   *PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, dialect, cleanup := testutil.OpenTestDB(t)
	t.Cleanup(cleanup)
	users := repo.NewUserRepo(conn, dialect)
	posts := repo.NewPostRepo(conn, dialect)
	return newFixtureWith(users, posts)
}

func newFixtureWith(users UserStore, posts PostStore) *fixture {
	tokens := NewTokenService(jwt.NewManager([]byte("test-secret"), 3*time.Hour))
	f := &fixture{
		users:  users,
		posts:  posts,
		tokens: tokens,
		auth:   NewAuthService(users, tokens, bcrypt.MinCost),
		post:   NewPostService(posts, users, 2),
	}
	// strictly increasing clock so createdAt ordering is deterministic
	var tick int64 = 1_700_000_000_000
	f.post.now = func() int64 {
		tick++
		return tick
	}
	return f
}

func (f *fixture) signup(t *testing.T, email string) *auth.Identity {
	t.Helper()
	user, err := f.auth.Signup(context.Background(), SignupInput{Email: email, Name: "writer", Password: "secret"})
	require.NoError(t, err)
	return &auth.Identity{UserID: user.ID, Email: user.Email}
}

func strPtr(s string) *string {
	return &s
}

func TestSignupStoresHashedPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Signup(ctx, SignupInput{Email: "a@b.com", Name: "a", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, model.DefaultUserStatus, user.Status)

	stored, err := f.users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotEqual(t, "secret", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret")))
}

func TestSignupCollectsAllValidationErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.Signup(context.Background(), SignupInput{Email: "not-an-email", Name: "a", Password: "abc"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	var verr *appErr.Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Data, 2)
	require.Equal(t, "email", verr.Data[0].Field)
	require.Equal(t, "password", verr.Data[1].Field)
	require.Equal(t, 422, appErr.Status(err))

	_, err = f.auth.Signup(context.Background(), SignupInput{Email: "a@b.com", Name: "a", Password: ""})
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Data, 1)
	require.Equal(t, "password", verr.Data[0].Field)
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.auth.Signup(ctx, SignupInput{Email: "a@b.com", Name: "a", Password: "secret"})
	require.NoError(t, err)

	_, err = f.auth.Signup(ctx, SignupInput{Email: "a@b.com", Name: "other", Password: "another"})
	require.ErrorIs(t, err, appErr.ErrConflict)

	stored, err := f.users.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.Equal(t, first.ID, stored.ID)
	require.Equal(t, "a", stored.Name)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "a@b.com")

	data, err := f.auth.Login(ctx, LoginInput{Email: "a@b.com", Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, id.UserID, data.UserID)

	verified, ok := f.tokens.Verify(data.Token)
	require.True(t, ok)
	require.Equal(t, id.UserID, verified.UserID)
	require.Equal(t, "a@b.com", verified.Email)
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@b.com")

	_, err := f.auth.Login(ctx, LoginInput{Email: "nobody@b.com", Password: "secret"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Equal(t, 401, appErr.Status(err))

	_, err = f.auth.Login(ctx, LoginInput{Email: "a@b.com", Password: "wrong"})
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	require.Equal(t, 401, appErr.Status(err))
}

func TestTokenExpiresAfterThreeHours(t *testing.T) {
	issued := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	manager := jwt.NewManager([]byte("test-secret"), 3*time.Hour)
	token, err := NewTokenService(manager.WithClock(func() time.Time { return issued })).Issue("u1", "a@b.com")
	require.NoError(t, err)

	later := NewTokenService(manager.WithClock(func() time.Time { return issued.Add(3*time.Hour + time.Minute) }))
	_, ok := later.Verify(token)
	require.False(t, ok)
}

func TestPostOperationsRequireAuth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.post.Create(ctx, nil, PostInput{Title: "t", Content: "c"})
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	_, err = f.post.List(ctx, nil, 1)
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	_, err = f.post.Get(ctx, nil, "p1")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	_, err = f.post.Update(ctx, nil, "p1", PostInput{})
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	_, err = f.post.Delete(ctx, nil, "p1")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)

	total, err := f.posts.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestCreatePostLinksCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "a@b.com")

	post, err := f.post.Create(ctx, id, PostInput{Title: "hello", Content: "world"})
	require.NoError(t, err)
	require.Equal(t, id.UserID, post.CreatorID)
	require.Equal(t, model.DefaultImageURL, post.ImageURL)
	require.Equal(t, post.Ctime, post.Mtime)

	user, err := f.users.GetByID(ctx, id.UserID)
	require.NoError(t, err)
	require.Equal(t, []string{post.ID}, user.PostIDs)

	second, err := f.post.Create(ctx, id, PostInput{Title: "again", Content: "more", ImageURL: strPtr("images/a.png")})
	require.NoError(t, err)
	require.Equal(t, "images/a.png", second.ImageURL)
	user, err = f.users.GetByID(ctx, id.UserID)
	require.NoError(t, err)
	require.Equal(t, []string{post.ID, second.ID}, user.PostIDs)
}

func TestCreatePostForVanishedUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.post.Create(context.Background(), &auth.Identity{UserID: "ghost"}, PostInput{Title: "t", Content: "c"})
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}

type failingLinkStore struct {
	UserStore
}

func (failingLinkStore) AppendPost(ctx context.Context, userID, postID string) error {
	return errors.New("link write failed")
}

// The post insert and the user list update are separate writes with no
// transaction, so a failure in between leaves an unlinked post behind.
func TestCreatePostInconsistencyWindow(t *testing.T) {
	base := newFixture(t)
	id := base.signup(t, "a@b.com")
	f := newFixtureWith(failingLinkStore{UserStore: base.users}, base.posts)
	ctx := context.Background()

	_, err := f.post.Create(ctx, id, PostInput{Title: "t", Content: "c"})
	require.Error(t, err)

	total, err := base.posts.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	user, err := base.users.GetByID(ctx, id.UserID)
	require.NoError(t, err)
	require.Empty(t, user.PostIDs)
}

func TestListPostsPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "a@b.com")

	var created []*model.Post
	for _, title := range []string{"p1", "p2", "p3", "p4", "p5"} {
		post, err := f.post.Create(ctx, id, PostInput{Title: title, Content: "c"})
		require.NoError(t, err)
		created = append(created, post)
	}

	page, err := f.post.List(ctx, id, 1)
	require.NoError(t, err)
	require.Equal(t, int64(5), page.TotalPosts)
	require.Len(t, page.Posts, 2)
	require.Equal(t, created[4].ID, page.Posts[0].ID)
	require.Equal(t, created[3].ID, page.Posts[1].ID)
	require.Greater(t, page.Posts[0].Ctime, page.Posts[1].Ctime)
	require.NotNil(t, page.Posts[0].Creator)
	require.Equal(t, id.UserID, page.Posts[0].Creator.ID)

	page, err = f.post.List(ctx, id, 3)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.Equal(t, created[0].ID, page.Posts[0].ID)
	require.Equal(t, int64(5), page.TotalPosts)

	page, err = f.post.List(ctx, id, 0)
	require.NoError(t, err)
	require.Equal(t, created[4].ID, page.Posts[0].ID)
}

func TestListPostsSameMillisecondKeepsCreationOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "a@b.com")
	f.post.now = func() int64 { return 1_700_000_000_000 }

	var created []*model.Post
	for _, title := range []string{"p1", "p2", "p3", "p4"} {
		post, err := f.post.Create(ctx, id, PostInput{Title: title, Content: "c"})
		require.NoError(t, err)
		created = append(created, post)
	}

	page, err := f.post.List(ctx, id, 1)
	require.NoError(t, err)
	require.Equal(t, []string{created[3].ID, created[2].ID}, []string{page.Posts[0].ID, page.Posts[1].ID})
	page, err = f.post.List(ctx, id, 2)
	require.NoError(t, err)
	require.Equal(t, []string{created[1].ID, created[0].ID}, []string{page.Posts[0].ID, page.Posts[1].ID})
}

func TestNewIDSortsInCreationOrder(t *testing.T) {
	prev := newID()
	for i := 0; i < 1000; i++ {
		next := newID()
		require.Less(t, prev, next)
		prev = next
	}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "a@b.com")

	post, err := f.post.Create(ctx, id, PostInput{Title: "title", Content: "content", ImageURL: strPtr("images/x.jpg")})
	require.NoError(t, err)

	got, err := f.post.Get(ctx, id, post.ID)
	require.NoError(t, err)
	require.Equal(t, "title", got.Title)
	require.Equal(t, "content", got.Content)
	require.Equal(t, "images/x.jpg", got.ImageURL)
	require.Equal(t, id.UserID, got.Creator.ID)

	_, err = f.post.Get(ctx, id, "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestUpdatePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "a@b.com")
	post, err := f.post.Create(ctx, id, PostInput{Title: "old", Content: "old", ImageURL: strPtr("images/old.png")})
	require.NoError(t, err)

	updated, err := f.post.Update(ctx, id, post.ID, PostInput{Title: "new", Content: "new", ImageURL: strPtr("undefined")})
	require.NoError(t, err)
	require.Equal(t, "new", updated.Title)
	require.Equal(t, "images/old.png", updated.ImageURL)
	require.Greater(t, updated.Mtime, post.Mtime)

	updated, err = f.post.Update(ctx, id, post.ID, PostInput{Title: "new", Content: "new"})
	require.NoError(t, err)
	require.Equal(t, "images/old.png", updated.ImageURL)

	updated, err = f.post.Update(ctx, id, post.ID, PostInput{Title: "new", Content: "new", ImageURL: strPtr("images/new.png")})
	require.NoError(t, err)
	require.Equal(t, "images/new.png", updated.ImageURL)

	stored, err := f.post.Get(ctx, id, post.ID)
	require.NoError(t, err)
	require.Equal(t, "images/new.png", stored.ImageURL)
	require.Equal(t, post.Ctime, stored.Ctime)

	_, err = f.post.Update(ctx, id, "missing", PostInput{Title: "x"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestNonOwnerCannotMutate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.signup(t, "owner@b.com")
	other := f.signup(t, "other@b.com")
	post, err := f.post.Create(ctx, owner, PostInput{Title: "mine", Content: "mine"})
	require.NoError(t, err)

	_, err = f.post.Update(ctx, other, post.ID, PostInput{Title: "stolen", Content: "stolen"})
	require.ErrorIs(t, err, appErr.ErrForbidden)
	require.Equal(t, 403, appErr.Status(err))

	ok, err := f.post.Delete(ctx, other, post.ID)
	require.ErrorIs(t, err, appErr.ErrForbidden)
	require.False(t, ok)

	stored, err := f.post.Get(ctx, owner, post.ID)
	require.NoError(t, err)
	require.Equal(t, "mine", stored.Title)
	require.Equal(t, post.Mtime, stored.Mtime)
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "a@b.com")
	post, err := f.post.Create(ctx, id, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	ok, err := f.post.Delete(ctx, id, post.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.post.Get(ctx, id, post.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	user, err := f.users.GetByID(ctx, id.UserID)
	require.NoError(t, err)
	require.Empty(t, user.PostIDs)

	_, err = f.post.Delete(ctx, id, post.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestPostsOfKeepsListOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "a@b.com")
	first, err := f.post.Create(ctx, id, PostInput{Title: "first", Content: "c"})
	require.NoError(t, err)
	second, err := f.post.Create(ctx, id, PostInput{Title: "second", Content: "c"})
	require.NoError(t, err)

	user, err := f.users.GetByID(ctx, id.UserID)
	require.NoError(t, err)
	posts, err := f.post.PostsOf(ctx, user)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, first.ID, posts[0].ID)
	require.Equal(t, second.ID, posts[1].ID)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.signup(t, "a@b.com")

	_, err := f.auth.UpdateStatus(ctx, nil, "busy")
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
	_, err = f.auth.UpdateStatus(ctx, id, "   ")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	user, err := f.auth.UpdateStatus(ctx, id, " writing ")
	require.NoError(t, err)
	require.Equal(t, "writing", user.Status)

	me, err := f.auth.Me(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "writing", me.Status)

	_, err = f.auth.Me(ctx, &auth.Identity{UserID: "ghost"})
	require.ErrorIs(t, err, appErr.ErrUnauthorized)
}
