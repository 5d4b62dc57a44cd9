package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/vidstream/auth-service/internal/dto"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Success    bool            `json:"success"`
}

type userData struct {
	User dto.UserResponse `json:"user"`
}

type sessionsData struct {
	Sessions []dto.SessionResponse `json:"sessions"`
}

func (s *Suite) postJSON(client *http.Client, path string, body interface{}) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	resp, err := client.Post(s.BaseURL+path, "application/json", bytes.NewBuffer(payload))
	s.Require().NoError(err)
	return resp
}

func (s *Suite) decodeEnvelope(resp *http.Response) envelope {
	var env envelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func (s *Suite) register(client *http.Client, username, email, password string) *http.Response {
	return s.postJSON(client, "/api/v1/auth/register", dto.RegisterRequest{
		Username: username,
		FullName: "Test User",
		Email:    email,
		Password: password,
	})
}

func (s *Suite) login(client *http.Client, username, password string) *http.Response {
	return s.postJSON(client, "/api/v1/auth/login", dto.LoginRequest{
		Username: username,
		Password: password,
	})
}

// registerAndLogin creates an account and opens a session on the client's jar
func (s *Suite) registerAndLogin(client *http.Client, username, email, password string) {
	resp := s.register(client, username, email, password)
	resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.login(client, username, password)
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)
}

func sessionCookies(resp *http.Response) (access, refresh *http.Cookie) {
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case "AccessToken":
			access = cookie
		case "RefreshToken":
			refresh = cookie
		}
	}
	return access, refresh
}

func (s *Suite) TestRegister_Success() {
	client := s.newClient()

	resp := s.register(client, "alice", "alice@example.com", "Password123")
	defer resp.Body.Close()

	s.Equal(http.StatusCreated, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	s.True(env.Success)
	s.Equal(http.StatusCreated, env.StatusCode)

	var data userData
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal("alice", data.User.Username)
	s.Equal("alice@example.com", data.User.Email)
	s.Equal("user", data.User.Role)
	s.NotEmpty(data.User.ID)

	// Raw body must never leak the password hash
	s.NotContains(string(env.Data), "password")
}

func (s *Suite) TestRegister_Duplicate() {
	client := s.newClient()

	resp := s.register(client, "alice", "alice@example.com", "Password123")
	resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp = s.register(client, "alice", "other@example.com", "Password123")
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	s.False(env.Success)
}

func (s *Suite) TestRegister_WeakPassword() {
	client := s.newClient()

	resp := s.register(client, "alice", "alice@example.com", "alllowercase")
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_SetsSessionCookies() {
	client := s.newClient()

	resp := s.register(client, "alice", "alice@example.com", "Password123")
	resp.Body.Close()

	resp = s.login(client, "alice", "Password123")
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	access, refresh := sessionCookies(resp)
	s.Require().NotNil(access)
	s.Require().NotNil(refresh)
	s.NotEmpty(access.Value)
	s.NotEmpty(refresh.Value)
	s.True(access.HttpOnly)
	s.True(refresh.HttpOnly)

	env := s.decodeEnvelope(resp)
	var data userData
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal("alice", data.User.Username)
	s.NotNil(data.User.LastLoginAt)
}

func (s *Suite) TestLogin_WrongPassword() {
	client := s.newClient()

	resp := s.register(client, "alice", "alice@example.com", "Password123")
	resp.Body.Close()

	resp = s.login(client, "alice", "WrongPassword1")
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	s.False(env.Success)
	s.Equal("Invalid credentials", env.Message)
}

func (s *Suite) TestLogin_LockoutAfterFailures() {
	client := s.newClient()

	resp := s.register(client, "alice", "alice@example.com", "Password123")
	resp.Body.Close()

	for i := 0; i < 5; i++ {
		resp = s.login(client, "alice", "WrongPassword1")
		resp.Body.Close()
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	}

	// Correct password is rejected while the lockout holds
	resp = s.login(client, "alice", "Password123")
	defer resp.Body.Close()

	s.Equal(http.StatusLocked, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	s.Contains(env.Message, "minutes")
}

func (s *Suite) TestGetMe() {
	client := s.newClient()
	s.registerAndLogin(client, "alice", "alice@example.com", "Password123")

	resp, err := client.Get(s.BaseURL + "/api/v1/auth/me")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data userData
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal("alice", data.User.Username)
}

func (s *Suite) TestGetMe_NoSession() {
	resp, err := http.Get(s.BaseURL + "/api/v1/auth/me")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestStatus() {
	resp, err := http.Get(s.BaseURL + "/api/v1/auth/status")
	s.Require().NoError(err)
	env := s.decodeEnvelope(resp)
	resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var status dto.StatusResponse
	s.Require().NoError(json.Unmarshal(env.Data, &status))
	s.False(status.Authenticated)
	s.Nil(status.User)

	client := s.newClient()
	s.registerAndLogin(client, "alice", "alice@example.com", "Password123")

	resp, err = client.Get(s.BaseURL + "/api/v1/auth/status")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	env = s.decodeEnvelope(resp)
	s.Require().NoError(json.Unmarshal(env.Data, &status))
	s.True(status.Authenticated)
	s.Require().NotNil(status.User)
	s.Equal("alice", status.User.Username)
}

func (s *Suite) TestRefresh_RotatesTokens() {
	client := s.newClient()

	resp := s.register(client, "alice", "alice@example.com", "Password123")
	resp.Body.Close()

	loginResp := s.login(client, "alice", "Password123")
	loginResp.Body.Close()
	_, oldRefresh := sessionCookies(loginResp)
	s.Require().NotNil(oldRefresh)

	resp, err := client.Post(s.BaseURL+"/api/v1/auth/refresh", "application/json", nil)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	newAccess, newRefresh := sessionCookies(resp)
	s.Require().NotNil(newAccess)
	s.Require().NotNil(newRefresh)
	s.NotEqual(oldRefresh.Value, newRefresh.Value)
}

func (s *Suite) TestRefresh_ReuseInvalidatesSession() {
	client := s.newClient()

	resp := s.register(client, "alice", "alice@example.com", "Password123")
	resp.Body.Close()

	loginResp := s.login(client, "alice", "Password123")
	loginResp.Body.Close()
	_, oldRefresh := sessionCookies(loginResp)
	s.Require().NotNil(oldRefresh)

	// Legitimate rotation; the jar now holds the new pair
	resp, err := client.Post(s.BaseURL+"/api/v1/auth/refresh", "application/json", nil)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	// Replay the rotated-away token from a second client
	req, _ := http.NewRequest(http.MethodPost, s.BaseURL+"/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "RefreshToken", Value: oldRefresh.Value})
	replayResp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer replayResp.Body.Close()

	s.Equal(http.StatusUnauthorized, replayResp.StatusCode)

	env := s.decodeEnvelope(replayResp)
	s.Contains(env.Message, "Session invalidated")

	// The whole family is dead: the legitimate client's token fails too
	resp, err = client.Post(s.BaseURL+"/api/v1/auth/refresh", "application/json", nil)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestRefresh_NoCookie() {
	resp, err := http.Post(s.BaseURL+"/api/v1/auth/refresh", "application/json", nil)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogout() {
	client := s.newClient()
	s.registerAndLogin(client, "alice", "alice@example.com", "Password123")

	resp, err := client.Post(s.BaseURL+"/api/v1/auth/logout", "application/json", nil)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// The revoked refresh token cannot rotate anymore
	resp, err = client.Post(s.BaseURL+"/api/v1/auth/refresh", "application/json", nil)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogoutAll() {
	phone := s.newClient()
	laptop := s.newClient()

	s.registerAndLogin(phone, "alice", "alice@example.com", "Password123")

	resp := s.login(laptop, "alice", "Password123")
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, err := phone.Post(s.BaseURL+"/api/v1/auth/logout-all", "application/json", nil)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// Both devices lost their sessions
	resp, err = laptop.Post(s.BaseURL+"/api/v1/auth/refresh", "application/json", nil)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestSessions_ListAndRevoke() {
	phone := s.newClient()
	laptop := s.newClient()

	s.registerAndLogin(phone, "alice", "alice@example.com", "Password123")

	resp := s.login(laptop, "alice", "Password123")
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, err := phone.Get(s.BaseURL + "/api/v1/auth/sessions")
	s.Require().NoError(err)
	env := s.decodeEnvelope(resp)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var data sessionsData
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().Len(data.Sessions, 2)
	s.NotEmpty(data.Sessions[0].UserAgent)

	req, _ := http.NewRequest(http.MethodDelete, s.BaseURL+"/api/v1/auth/sessions/"+data.Sessions[0].ID, nil)
	revokeResp, err := phone.Do(req)
	s.Require().NoError(err)
	revokeResp.Body.Close()
	s.Equal(http.StatusOK, revokeResp.StatusCode)

	resp, err = phone.Get(s.BaseURL + "/api/v1/auth/sessions")
	s.Require().NoError(err)
	env = s.decodeEnvelope(resp)
	resp.Body.Close()

	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Len(data.Sessions, 1)
}

func (s *Suite) TestSessions_RevokeUnknown() {
	client := s.newClient()
	s.registerAndLogin(client, "alice", "alice@example.com", "Password123")

	req, _ := http.NewRequest(http.MethodDelete,
		s.BaseURL+"/api/v1/auth/sessions/00000000-0000-0000-0000-000000000000", nil)
	resp, err := client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *Suite) TestChangePassword() {
	client := s.newClient()
	s.registerAndLogin(client, "alice", "alice@example.com", "Password123")

	resp := s.postJSON(client, "/api/v1/auth/change-password", dto.ChangePasswordRequest{
		OldPassword: "Password123",
		NewPassword: "NewPassword123",
	})
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// Old password no longer works, new one does
	resp = s.login(client, "alice", "Password123")
	resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = s.login(client, "alice", "NewPassword123")
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestCleanup_RequiresElevatedRole() {
	client := s.newClient()
	s.registerAndLogin(client, "alice", "alice@example.com", "Password123")

	resp, err := client.Post(s.BaseURL+"/api/v1/auth/cleanup", "application/json", nil)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusForbidden, resp.StatusCode)

	// The user is reloaded on every request, so the role change takes
	// effect without a new login
	_, err = s.Postgres.DB.Exec(`UPDATE users SET role = 'admin' WHERE username = $1`, "alice")
	s.Require().NoError(err)

	resp, err = client.Post(s.BaseURL+"/api/v1/auth/cleanup", "application/json", nil)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var cleanup dto.CleanupResponse
	s.Require().NoError(json.Unmarshal(env.Data, &cleanup))
	s.GreaterOrEqual(cleanup.DeletedCount, int64(0))
}

func (s *Suite) TestCompleteFlow() {
	client := s.newClient()

	s.registerAndLogin(client, "flow", "flow@example.com", "Password123")

	resp, err := client.Get(s.BaseURL + "/api/v1/auth/me")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, err = client.Post(s.BaseURL+"/api/v1/auth/refresh", "application/json", nil)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, err = client.Get(s.BaseURL + "/api/v1/auth/me")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, err = client.Post(s.BaseURL+"/api/v1/auth/logout", "application/json", nil)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// Cookies were cleared by logout
	resp, err = client.Get(s.BaseURL + "/api/v1/auth/me")
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
