package authmock

import (
	"bytes"
	"encoding/base64"
	"io"
	"math/big"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// record keeps every request outside of the control routes
func (s *Server) record(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/_") {
		c.Next()
		return
	}

	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}
	headers := make(map[string]string, len(c.Request.Header))
	for k := range c.Request.Header {
		headers[k] = c.Request.Header.Get(k)
	}

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method:  c.Request.Method,
		Path:    c.Request.URL.Path,
		Query:   c.Request.URL.Query(),
		Body:    string(body),
		Headers: headers,
	})
	s.mu.Unlock()

	c.Next()
}

// checkToken returns the status of a token check for the optional scope
func (s *Server) checkToken(id, scope string) (Token, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wrongACL[id]; ok {
		return Token{}, http.StatusForbidden
	}
	t, ok := s.tokens[id]
	if !ok {
		return Token{}, http.StatusNotFound
	}
	if scope != "" && len(t.ACLs) > 0 && !slices.Contains(t.ACLs, scope) {
		return Token{}, http.StatusForbidden
	}
	return t, http.StatusOK
}

// (HEAD /0.1/token/:token)
func (s *Server) headToken(c *gin.Context) {
	_, status := s.checkToken(c.Param("token"), c.Query("scope"))
	if status == http.StatusOK {
		status = http.StatusNoContent
	}
	c.Status(status)
}

// (GET /0.1/token/:token)
func (s *Server) getToken(c *gin.Context) {
	t, status := s.checkToken(c.Param("token"), c.Query("scope"))
	if status != http.StatusOK {
		c.Status(status)
		return
	}
	if t.UserUUID == "" {
		t.UserUUID = t.AuthID
	}
	c.JSON(http.StatusOK, gin.H{"data": t})
}

// createToken issues a signed token for any credentials not declared invalid
// (POST /0.1/token)
func (s *Server) createToken(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "basic authentication required"})
		return
	}

	s.mu.Lock()
	_, invalid := s.invalidCredentials[Credentials{Username: username, Password: password}]
	s.mu.Unlock()
	if invalid {
		c.Status(http.StatusUnauthorized)
		return
	}

	signed, err := s.signToken(username)
	if err != nil {
		s.log.Errorw("failed to sign token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}

	t := Token{Token: signed, AuthID: defaultAuthID, UserUUID: defaultAuthID}
	s.SetToken(t)
	c.JSON(http.StatusOK, gin.H{"data": t})
}

func (s *Server) signToken(username string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Issuer:    s.baseURL,
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	token.Header["kid"] = s.kid
	return token.SignedString(s.key)
}

// certs serves the public key of issued tokens as a JWKS
// (GET /0.1/certs)
func (s *Server) certs(c *gin.Context) {
	pub := &s.key.PublicKey
	c.JSON(http.StatusOK, gin.H{"keys": []gin.H{{
		"kty": "RSA",
		"alg": "RS256",
		"use": "sig",
		"kid": s.kid,
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}})
}

// (GET /0.1/users)
func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	items := make([]User, 0, len(s.users))
	for _, u := range s.users {
		items = append(items, u)
	}
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// (POST /0.1/users)
func (s *Server) createUser(c *gin.Context) {
	var req struct {
		UUID         string `json:"uuid"`
		Firstname    string `json:"firstname"`
		Lastname     string `json:"lastname"`
		Username     string `json:"username"`
		EmailAddress string `json:"email_address"`
		Enabled      *bool  `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u := User{
		UUID:      req.UUID,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Username:  req.Username,
		Emails:    []string{},
		Enabled:   req.Enabled == nil || *req.Enabled,
	}
	if u.UUID == "" {
		u.UUID = uuid.NewString()
	}
	if req.EmailAddress != "" {
		u.Emails = append(u.Emails, req.EmailAddress)
	}

	s.mu.Lock()
	s.users[u.UUID] = u
	s.mu.Unlock()
	c.JSON(http.StatusOK, u)
}

// (GET /0.1/users/:uuid)
func (s *Server) getUser(c *gin.Context) {
	s.mu.Lock()
	u, ok := s.users[c.Param("uuid")]
	s.mu.Unlock()
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, u)
}

// (POST /_set_token)
func (s *Server) setToken(c *gin.Context) {
	var t Token
	if err := c.ShouldBindJSON(&t); err != nil || t.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}
	s.SetToken(t)
	c.Status(http.StatusNoContent)
}

// (DELETE /_remove_token/:token)
func (s *Server) removeToken(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("token")
	if _, ok := s.tokens[id]; !ok {
		c.Status(http.StatusNotFound)
		return
	}
	delete(s.tokens, id)
	c.Status(http.StatusNoContent)
}

// (POST /_add_invalid_credentials)
func (s *Server) addInvalidCredentials(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.mu.Lock()
	s.invalidCredentials[creds] = struct{}{}
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}

// (GET /_requests)
func (s *Server) listRequests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"requests": s.Requests()})
}

// (POST /_reset)
func (s *Server) resetRequests(c *gin.Context) {
	s.reset()
	c.Status(http.StatusNoContent)
}
