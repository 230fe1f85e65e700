package httptransport

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docstamp/internal/admin"
	"docstamp/internal/audit"
	"docstamp/internal/auth/models"
	dErrors "docstamp/pkg/domain-errors"
	"docstamp/pkg/testutil"
)

type AdminHandlerSuite struct {
	handlerSuite
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) asAdmin(req *http.Request) *http.Request {
	req = s.withSession(req, "sid-root", "root")
	s.gate.EXPECT().Authorize(gomock.Any(), gomock.Any(), models.CapabilityAdminister).Return(true, nil)
	return req
}

func sampleLogs() *admin.LogsListResponse {
	ts := time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
	return &admin.LogsListResponse{Total: 1, Logs: []*audit.Record{{
		ID: 7, Actor: "alice", NationalID: "12345678901", FirstName: "<script>alert(1)</script>", LastName: "Veli", Timestamp: ts,
	}}}
}

func (s *AdminHandlerSuite) TestNonAdminIsForbidden() {
	req := s.withSession(testutil.NewRequest(s.T(), http.MethodGet, "/admin"), "sid-alice", "alice")
	s.gate.EXPECT().Authorize(gomock.Any(), gomock.Any(), models.CapabilityAdminister).Return(false, nil)

	rr := testutil.DoRequest(s.router, req)
	s.Equal(http.StatusForbidden, rr.Code)
}

func (s *AdminHandlerSuite) TestAnonymousIsRedirected() {
	s.gate.EXPECT().Authorize(gomock.Any(), models.Identity{}, models.CapabilityAdminister).Return(false, nil)

	rr := testutil.DoRequest(s.router, testutil.NewFormRequest(s.T(), "/admin/logs/clear", url.Values{}))
	s.Equal(http.StatusSeeOther, rr.Code)
	s.Equal("/login", rr.Header().Get("Location"))
}

func (s *AdminHandlerSuite) TestAdminPageEscapesUntrustedValues() {
	req := s.asAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/admin"))
	s.admin.EXPECT().ListUsers(gomock.Any()).Return(&admin.UsersListResponse{Total: 1, Users: []*admin.UserInfoResponse{
		{Username: `"><img src=x onerror=alert(1)>`},
	}}, nil)
	s.admin.EXPECT().ListLogs(gomock.Any()).Return(sampleLogs(), nil)

	rr := testutil.DoRequest(s.router, req)

	s.Equal(http.StatusOK, rr.Code)
	body := rr.Body.String()
	s.NotContains(body, "<script>alert(1)</script>")
	s.NotContains(body, "<img src=x")
	s.Contains(body, "&lt;script&gt;")
	s.Contains(body, "2024-05-17T09:30:00Z")
}

func (s *AdminHandlerSuite) TestAddUser() {
	s.Run("created redirects back", func() {
		req := s.asAdmin(testutil.NewFormRequest(s.T(), "/admin/add", url.Values{"username": {"alice"}, "password": {"pw"}}))
		s.admin.EXPECT().AddUser(gomock.Any(), "alice", "pw", false).Return(&admin.UserInfoResponse{Username: "alice"}, nil)

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusSeeOther, rr.Code)
		s.Equal("/admin", rr.Header().Get("Location"))
	})

	s.Run("admin flag is passed through", func() {
		req := s.asAdmin(testutil.NewFormRequest(s.T(), "/admin/add", url.Values{"username": {"bob"}, "password": {"pw"}, "is_admin": {"true"}}))
		s.admin.EXPECT().AddUser(gomock.Any(), "bob", "pw", true).Return(&admin.UserInfoResponse{Username: "bob"}, nil)

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusSeeOther, rr.Code)
	})

	s.Run("duplicate is 409", func() {
		req := s.asAdmin(testutil.NewFormRequest(s.T(), "/admin/add", url.Values{"username": {"alice"}, "password": {"pw2"}}))
		s.admin.EXPECT().AddUser(gomock.Any(), "alice", "pw2", false).
			Return(nil, dErrors.New(dErrors.CodeConflict, "user already exists"))

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusConflict, rr.Code)
		s.Contains(rr.Body.String(), "Zaten var")
	})
}

func (s *AdminHandlerSuite) TestDeleteUser() {
	s.Run("deleted redirects back", func() {
		req := s.asAdmin(testutil.NewFormRequest(s.T(), "/admin/delete", url.Values{"username": {"alice"}}))
		s.admin.EXPECT().DeleteUser(gomock.Any(), "alice").Return(nil)

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusSeeOther, rr.Code)
	})

	s.Run("missing user is 404", func() {
		req := s.asAdmin(testutil.NewFormRequest(s.T(), "/admin/delete", url.Values{"username": {"ghost"}}))
		s.admin.EXPECT().DeleteUser(gomock.Any(), "ghost").Return(dErrors.New(dErrors.CodeNotFound, "user not found"))

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusNotFound, rr.Code)
	})
}

func (s *AdminHandlerSuite) TestLogs() {
	s.Run("json format", func() {
		req := s.asAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/admin/logs?format=json"))
		s.admin.EXPECT().ListLogs(gomock.Any()).Return(sampleLogs(), nil)

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("application/json", rr.Header().Get("Content-Type"))

		var got admin.LogsListResponse
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &got))
		s.Equal(1, got.Total)
		s.Equal(int64(7), got.Logs[0].ID)
	})

	s.Run("html table", func() {
		req := s.asAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/admin/logs"))
		s.admin.EXPECT().ListLogs(gomock.Any()).Return(sampleLogs(), nil)

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusOK, rr.Code)
		s.Contains(rr.Body.String(), "12345678901")
	})

	s.Run("storage failure in json", func() {
		req := s.asAdmin(testutil.NewRequest(s.T(), http.MethodGet, "/admin/logs?format=json"))
		s.admin.EXPECT().ListLogs(gomock.Any()).Return(nil, dErrors.New(dErrors.CodeStorageFailure, "down"))

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusInternalServerError, rr.Code)
	})

	s.Run("clear redirects to logs", func() {
		req := s.asAdmin(testutil.NewFormRequest(s.T(), "/admin/logs/clear", url.Values{}))
		s.admin.EXPECT().ClearLogs(gomock.Any()).Return(nil)

		rr := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusSeeOther, rr.Code)
		s.Equal("/admin/logs", rr.Header().Get("Location"))
	})
}
