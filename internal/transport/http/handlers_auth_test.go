package httptransport

//go:generate mockgen -source=router.go -destination=mocks/mocks.go -package=mocks Gate,Issuer,AdminService

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docstamp/internal/auth/cookie"
	"docstamp/internal/auth/models"
	"docstamp/internal/transport/http/mocks"
	dErrors "docstamp/pkg/domain-errors"
	"docstamp/pkg/testutil"
)

const signingKey = "test-signing-key"

// handlerSuite is embedded by every handler suite in this package.
type handlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	gate    *mocks.MockGate
	issuer  *mocks.MockIssuer
	admin   *mocks.MockAdminService
	cookies *cookie.Codec
	router  http.Handler
}

func (s *handlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gate = mocks.NewMockGate(s.ctrl)
	s.issuer = mocks.NewMockIssuer(s.ctrl)
	s.admin = mocks.NewMockAdminService(s.ctrl)
	s.cookies = cookie.NewCodec(signingKey, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(NewHandler(s.gate, s.issuer, s.admin, s.cookies, logger))
}

func (s *handlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

// withSession attaches a signed cookie for sid and expects it to resolve to actor.
func (s *handlerSuite) withSession(req *http.Request, sid, actor string) *http.Request {
	value, err := s.cookies.Encode(&models.Session{ID: sid, CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)})
	s.Require().NoError(err)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: value})
	s.gate.EXPECT().Resolve(gomock.Any(), sid).Return(models.Identity{Actor: actor, SessionID: sid}, nil)
	return req
}

type AuthHandlerSuite struct {
	handlerSuite
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) TestLoginForm() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/login"))
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `action="/login"`)
}

func (s *AuthHandlerSuite) TestLoginSuccessSetsCookie() {
	sess := &models.Session{ID: "sid-1", Actor: "alice", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	s.gate.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return(sess, nil)

	rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), "/login", url.Values{"username": {"alice"}, "password": {"pw"}}))

	s.Equal(http.StatusSeeOther, rr.Code)
	s.Equal("/", rr.Header().Get("Location"))
	cookies := rr.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal(cookie.Name, cookies[0].Name)
	s.True(cookies[0].HttpOnly)

	sid, err := s.cookies.Decode(cookies[0].Value)
	s.Require().NoError(err)
	s.Equal("sid-1", sid)
}

func (s *AuthHandlerSuite) TestLoginFailureIsInline401() {
	s.gate.EXPECT().Authenticate(gomock.Any(), "alice", "wrong").
		Return(nil, dErrors.New(dErrors.CodeInvalidCredentials, "invalid username or password"))

	rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), "/login", url.Values{"username": {"alice"}, "password": {"wrong"}}))

	s.Equal(http.StatusUnauthorized, rr.Code)
	s.Contains(rr.Body.String(), `href="/login"`)
	s.Empty(rr.Result().Cookies())
}

func (s *AuthHandlerSuite) TestLoginStorageFailureIs500() {
	s.gate.EXPECT().Authenticate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeStorageFailure, "db down"))

	rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), "/login", url.Values{"username": {"alice"}, "password": {"pw"}}))

	s.Equal(http.StatusInternalServerError, rr.Code)
	s.NotContains(rr.Body.String(), "db down")
}

func (s *AuthHandlerSuite) TestLoginReplacesExistingSession() {
	sess := &models.Session{ID: "sid-new", Actor: "alice", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	req := testutil.NewFormRequest(s.T(), "/login", url.Values{"username": {"alice"}, "password": {"pw"}})
	req = s.withSession(req, "sid-old", "alice")
	s.gate.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return(sess, nil)
	s.gate.EXPECT().Logout(gomock.Any(), "sid-old").Return(nil)

	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusSeeOther, rr.Code)
}

func (s *AuthHandlerSuite) TestLogout() {
	req := s.withSession(testutil.NewRequest(s.T(), http.MethodGet, "/logout"), "sid-1", "alice")
	s.gate.EXPECT().Logout(gomock.Any(), "sid-1").Return(nil)

	rr := testutil.DoRequest(s.router, req)

	s.Equal(http.StatusSeeOther, rr.Code)
	s.Equal("/login", rr.Header().Get("Location"))
	cookies := rr.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Equal(-1, cookies[0].MaxAge)
}

func (s *AuthHandlerSuite) TestTamperedCookieIsAnonymous() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/")
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: "eyJhbGciOiJIUzI1NiJ9.eyJzaWQiOiJ4In0.forged"})
	s.gate.EXPECT().Authorize(gomock.Any(), models.Identity{}, models.CapabilityGenerate).Return(false, nil)

	rr := testutil.DoRequest(s.router, req)

	s.Equal(http.StatusSeeOther, rr.Code)
	s.Equal("/login", rr.Header().Get("Location"))
}
