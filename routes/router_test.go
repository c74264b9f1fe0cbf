package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/inkwell/config"
	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/store"
	"github.com/cppla/inkwell/utils"
)

func TestMain(m *testing.M) {
	// minimum bcrypt cost keeps the suite fast
	utils.PasswordCost = 4
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	config.Set(config.AppConfig{
		JWTSecret:          "test-secret",
		GinMode:            "test",
		GinPath:            filepath.Join(t.TempDir(), "gin.log"),
		PostsPerPage:       2,
		RateLimitPerMinute: 100000,
	})
	db, err := config.OpenDatabase(config.AppConfig{DBDriver: "sqlite", DatabaseURI: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, store.New(db).Migrate())
	return SetupRouter(db), db
}

// browser keeps cookies between requests the way a real one would.
type browser struct {
	t       *testing.T
	r       *gin.Engine
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, r *gin.Engine) *browser {
	return &browser{t: t, r: r, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.r.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits a form, echoing the CSRF cookie the first GET handed out.
func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if _, ok := b.cookies["csrf_token"]; !ok {
		b.get("/health")
	}
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", b.cookies["csrf_token"].Value)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) register(username string) *httptest.ResponseRecorder {
	return b.post("/auth/register", url.Values{
		"username":  {username},
		"email":     {username + "@example.com"},
		"password":  {"secret1"},
		"password2": {"secret1"},
	})
}

func (b *browser) login(username string) *httptest.ResponseRecorder {
	rec := b.post("/auth/login", url.Values{"username": {username}, "password": {"secret1"}})
	require.Equal(b.t, http.StatusFound, rec.Code)
	return rec
}

func signedIn(t *testing.T, r *gin.Engine, username string) *browser {
	b := newBrowser(t, r)
	require.Equal(t, http.StatusFound, b.register(username).Code)
	b.login(username)
	return b
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t)
	rec := newBrowser(t, r).get("/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestIndex_Empty(t *testing.T) {
	r, _ := newTestServer(t)
	rec := newBrowser(t, r).get("/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No posts here.")
	assert.Contains(t, rec.Body.String(), "stranger")
}

func TestRegisterThenFlashOnLoginPage(t *testing.T) {
	r, db := newTestServer(t)
	b := newBrowser(t, r)

	rec := b.register("alice")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.EqualValues(t, 1, count(t, db, &models.User{}))

	page := b.get("/auth/login")
	assert.Contains(t, page.Body.String(), "Congratulations, you are now a registered user!")

	again := b.get("/auth/login")
	assert.NotContains(t, again.Body.String(), "Congratulations", "flashes are shown once")
}

func TestRegisterTwice_UsernameTaken(t *testing.T) {
	r, db := newTestServer(t)
	b := newBrowser(t, r)
	require.Equal(t, http.StatusFound, b.register("alice").Code)

	rec := b.post("/auth/register", url.Values{
		"username":  {"alice"},
		"email":     {"new@example.com"},
		"password":  {"secret1"},
		"password2": {"secret1"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please use a different username.")
	assert.EqualValues(t, 1, count(t, db, &models.User{}))
}

func TestRegister_PasswordMismatchInline(t *testing.T) {
	r, db := newTestServer(t)
	b := newBrowser(t, r)

	rec := b.post("/auth/register", url.Values{
		"username":  {"alice"},
		"email":     {"alice@example.com"},
		"password":  {"secret1"},
		"password2": {"secret2"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Field must be equal to password.")
	assert.Zero(t, count(t, db, &models.User{}))
}

func TestLogin_BadCredentials(t *testing.T) {
	r, _ := newTestServer(t)
	b := newBrowser(t, r)
	require.Equal(t, http.StatusFound, b.register("alice").Code)

	rec := b.post("/auth/login", url.Values{"username": {"alice"}, "password": {"wrong!"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	_, hasToken := b.cookies["token"]
	assert.False(t, hasToken)

	assert.Contains(t, b.get("/auth/login").Body.String(), "Invalid username or password")
}

func TestLogin_RememberMeMakesCookiePersistent(t *testing.T) {
	r, _ := newTestServer(t)
	b := newBrowser(t, r)
	require.Equal(t, http.StatusFound, b.register("alice").Code)

	rec := b.post("/auth/login", url.Values{"username": {"alice"}, "password": {"secret1"}, "remember_me": {"true"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/index", rec.Header().Get("Location"))
	require.Contains(t, b.cookies, "token")
	assert.Equal(t, 30*24*60*60, b.cookies["token"].MaxAge)
}

func TestLoginRequired_RedirectsWithNext(t *testing.T) {
	r, _ := newTestServer(t)
	b := newBrowser(t, r)

	rec := b.get("/create")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fcreate", rec.Header().Get("Location"))
	assert.Contains(t, b.get("/auth/login?next=%2Fcreate").Body.String(), "Please log in to access this page.")

	require.Equal(t, http.StatusFound, b.register("alice").Code)
	login := b.post("/auth/login?next=%2Fcreate", url.Values{"username": {"alice"}, "password": {"secret1"}})
	assert.Equal(t, "/create", login.Header().Get("Location"))
}

func TestCreatePost(t *testing.T) {
	r, db := newTestServer(t)
	b := signedIn(t, r, "alice")

	assert.Equal(t, http.StatusOK, b.get("/create").Code)

	rec := b.post("/create", url.Values{"title": {"Hello world"}, "content": {"**bold** <script>alert(1)</script>"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/index", rec.Header().Get("Location"))
	assert.EqualValues(t, 1, count(t, db, &models.Post{}))

	index := b.get("/index").Body.String()
	assert.Contains(t, index, "Your post has been published!")
	assert.Contains(t, index, "Hello world")

	var post models.Post
	require.NoError(t, db.First(&post).Error)
	detail := b.get("/post/" + itoa(post.ID)).Body.String()
	assert.Contains(t, detail, "<strong>bold</strong>")
	assert.NotContains(t, detail, "<script>alert(1)</script>")
}

func TestCreatePost_InvalidTitleRerenders(t *testing.T) {
	r, db := newTestServer(t)
	b := signedIn(t, r, "alice")

	empty := b.post("/create", url.Values{"title": {""}, "content": {"body"}})
	assert.Equal(t, http.StatusOK, empty.Code)
	assert.Contains(t, empty.Body.String(), "This field is required.")

	long := b.post("/create", url.Values{"title": {strings.Repeat("T", 250)}, "content": {"body"}})
	assert.Equal(t, http.StatusOK, long.Code)
	assert.Contains(t, long.Body.String(), "Field cannot be longer than 200 characters.")

	assert.Zero(t, count(t, db, &models.Post{}))
}

func TestComments(t *testing.T) {
	r, db := newTestServer(t)
	alice := signedIn(t, r, "alice")
	require.Equal(t, http.StatusFound, alice.post("/create", url.Values{"title": {"Hello"}, "content": {"World"}}).Code)
	var post models.Post
	require.NoError(t, db.First(&post).Error)
	path := "/post/" + itoa(post.ID)

	anon := newBrowser(t, r)
	rec := anon.post(path, url.Values{"content": {"drive-by"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auth/login", rec.Header().Get("Location"))
	assert.Zero(t, count(t, db, &models.Comment{}))
	assert.Contains(t, anon.get("/auth/login").Body.String(), "Please log in to comment.")

	blank := anon.post(path, url.Values{"content": {"  "}})
	assert.Equal(t, http.StatusOK, blank.Code, "empty content is rejected before the login check")
	assert.Contains(t, blank.Body.String(), "This field is required.")

	bob := signedIn(t, r, "bob")
	rec = bob.post(path, url.Values{"content": {"Nice one"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, path, rec.Header().Get("Location"))

	page := bob.get(path).Body.String()
	assert.Contains(t, page, "Your comment has been added!")
	assert.Contains(t, page, "Nice one")
	assert.EqualValues(t, 1, count(t, db, &models.Comment{}))
}

func TestMissingResourcesAre404(t *testing.T) {
	r, db := newTestServer(t)
	b := signedIn(t, r, "bob")

	rec := b.post("/post/999", url.Values{"content": {"hello?"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, count(t, db, &models.Comment{}))

	assert.Equal(t, http.StatusNotFound, b.get("/post/999").Code)
	assert.Equal(t, http.StatusNotFound, b.get("/post/abc").Code)
	assert.Equal(t, http.StatusNotFound, b.get("/user/ghost").Code)
	assert.Equal(t, http.StatusNotFound, b.get("/no/such/page").Code)
}

func TestProfileEdit(t *testing.T) {
	r, db := newTestServer(t)
	b := signedIn(t, r, "alice")

	form := b.get("/profile")
	assert.Equal(t, http.StatusOK, form.Code)

	rec := b.post("/profile", url.Values{"full_name": {"Alice Liddell"}, "location": {"Oxford"}, "bio": {"Down the rabbit hole"}})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/user/alice", rec.Header().Get("Location"))

	page := b.get("/user/alice").Body.String()
	assert.Contains(t, page, "Your profile has been updated!")
	assert.Contains(t, page, "Alice Liddell")
	assert.Contains(t, page, "Oxford")

	prefilled := b.get("/profile").Body.String()
	assert.Contains(t, prefilled, `value="Alice Liddell"`)

	var u models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&u).Error)
	assert.Equal(t, "Down the rabbit hole", u.Bio)

	tooLong := b.post("/profile", url.Values{"website": {strings.Repeat("w", 201)}})
	assert.Equal(t, http.StatusOK, tooLong.Code)
	assert.Contains(t, tooLong.Body.String(), "Field cannot be longer than 200 characters.")
}

func TestLogoutRevokesToken(t *testing.T) {
	r, _ := newTestServer(t)
	b := signedIn(t, r, "alice")
	stolen := *b.cookies["token"]

	rec := b.get("/auth/logout")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.NotContains(t, b.cookies, "token")

	b.cookies["token"] = &stolen
	again := b.get("/create")
	assert.Equal(t, http.StatusFound, again.Code, "revoked token no longer signs in")
}

func TestCSRFMismatchRejected(t *testing.T) {
	r, db := newTestServer(t)
	b := signedIn(t, r, "alice")

	form := url.Values{"title": {"t"}, "content": {"c"}, "csrf_token": {"forged"}}
	req := httptest.NewRequest(http.MethodPost, "/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := b.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, count(t, db, &models.Post{}))
}

func TestIndexPagination(t *testing.T) {
	r, _ := newTestServer(t)
	b := signedIn(t, r, "alice")
	for _, title := range []string{"first", "second", "third"} {
		require.Equal(t, http.StatusFound, b.post("/create", url.Values{"title": {title}, "content": {"x"}}).Code)
	}

	one := b.get("/index").Body.String()
	assert.Contains(t, one, "third")
	assert.Contains(t, one, "second")
	assert.NotContains(t, one, ">first<")
	assert.Contains(t, one, "/index?page=2")

	two := b.get("/index?page=2").Body.String()
	assert.Contains(t, two, ">first<")

	beyond := b.get("/index?page=9")
	assert.Equal(t, http.StatusOK, beyond.Code)
	assert.Contains(t, beyond.Body.String(), "No posts here.")
}

func TestAboutCountsPageViews(t *testing.T) {
	r, _ := newTestServer(t)
	b := signedIn(t, r, "alice")
	b.get("/index")

	page := b.get("/about").Body.String()
	assert.Contains(t, page, "1 members")
	assert.Contains(t, page, "page views today")
}

func TestCaptchaEndpoint(t *testing.T) {
	r, _ := newTestServer(t)
	rec := newBrowser(t, r).get("/auth/captcha")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["id"])
	assert.Contains(t, body["image"], "base64,")
}

// withRedis backs kv state and registration throttling with an in-memory Redis for one test.
func withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	utils.SetRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { utils.SetRedis(nil) })
	return mr
}

func TestRegisterThrottle_OnlyCountsValidSubmissions(t *testing.T) {
	r, db := newTestServer(t)
	mr := withRedis(t)
	b := newBrowser(t, r)

	typo := b.post("/auth/register", url.Values{
		"username":  {"alice"},
		"email":     {"alice@example.com"},
		"password":  {"secret1"},
		"password2": {"typo"},
	})
	require.Equal(t, http.StatusOK, typo.Code)
	assert.Contains(t, typo.Body.String(), "Field must be equal to password.")

	fixed := b.register("alice")
	require.Equal(t, http.StatusFound, fixed.Code, "the corrected resubmit is not throttled")
	assert.Contains(t, b.get("/auth/login").Body.String(), "Congratulations, you are now a registered user!")

	again := b.post("/auth/register", url.Values{
		"username":  {"alice"},
		"email":     {"other@example.com"},
		"password":  {"secret1"},
		"password2": {"secret1"},
	})
	assert.Equal(t, http.StatusOK, again.Code)
	assert.Contains(t, again.Body.String(), "Please use a different username.")

	tooSoon := b.register("bob")
	assert.Equal(t, http.StatusTooManyRequests, tooSoon.Code)
	assert.EqualValues(t, 1, count(t, db, &models.User{}))

	mr.FastForward(11 * time.Second)
	assert.Equal(t, http.StatusFound, b.register("bob").Code)
	assert.EqualValues(t, 2, count(t, db, &models.User{}))
}

func TestUsernamesAreEscapedInLinks(t *testing.T) {
	r, _ := newTestServer(t)
	b := signedIn(t, r, "bob?x")

	rec := b.post("/profile", url.Values{"location": {"Riga"}})
	require.Equal(t, http.StatusFound, rec.Code)
	target := rec.Header().Get("Location")
	assert.Equal(t, "/user/bob%3Fx", target)

	page := b.get(target)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Riga")
	assert.Contains(t, page.Body.String(), `href="/user/bob%3Fx"`)

	slash := signedIn(t, r, "a/b")
	assert.Equal(t, http.StatusOK, slash.get("/user/a%2Fb").Code)
}

func TestIndex_HugePageIsEmpty(t *testing.T) {
	r, _ := newTestServer(t)
	b := signedIn(t, r, "alice")
	for _, title := range []string{"first", "second", "third"} {
		require.Equal(t, http.StatusFound, b.post("/create", url.Values{"title": {title}, "content": {"x"}}).Code)
	}

	rec := b.get("/index?page=9223372036854775807")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "third")
	assert.Contains(t, rec.Body.String(), "No posts here.")
}

func TestLogin_FailureKeepsNext(t *testing.T) {
	r, _ := newTestServer(t)
	b := newBrowser(t, r)
	require.Equal(t, http.StatusFound, b.register("alice").Code)

	rec := b.post("/auth/login?next=%2Fcreate", url.Values{"username": {"alice"}, "password": {"wrong!"}})
	require.Equal(t, http.StatusFound, rec.Code)
	retry := rec.Header().Get("Location")
	assert.Equal(t, "/auth/login?next=%2Fcreate", retry)
	assert.Contains(t, b.get(retry).Body.String(), `action="/auth/login?next=%2fcreate"`)

	ok := b.post(retry, url.Values{"username": {"alice"}, "password": {"secret1"}})
	assert.Equal(t, "/create", ok.Header().Get("Location"))
}

func TestRegister_TrimsUsername(t *testing.T) {
	r, db := newTestServer(t)
	b := newBrowser(t, r)
	require.Equal(t, http.StatusFound, b.register("alice").Code)

	rec := b.post("/auth/register", url.Values{
		"username":  {"alice "},
		"email":     {" fresh@example.com "},
		"password":  {"secret1"},
		"password2": {"secret1"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please use a different username.")
	assert.EqualValues(t, 1, count(t, db, &models.User{}))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
