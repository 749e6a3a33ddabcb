package authmock

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// ValidToken is accepted until removed with the /_remove_token control.
	ValidToken = "valid-token"
	// WrongACLToken is known but refused with 403.
	WrongACLToken = "invalid-acl-token"

	defaultAuthID     = "uuid"
	defaultTenantUUID = "ffffffff-ffff-ffff-ffff-ffffffffffff"
)

// Token is the document returned by the token check endpoint.
type Token struct {
	Token    string         `json:"token"`
	AuthID   string         `json:"auth_id"`
	UserUUID string         `json:"xivo_user_uuid,omitempty"`
	ACLs     []string       `json:"acls,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
}

type User struct {
	UUID      string   `json:"uuid"`
	Firstname string   `json:"firstname,omitempty"`
	Lastname  string   `json:"lastname,omitempty"`
	Username  string   `json:"username,omitempty"`
	Emails    []string `json:"emails"`
	Enabled   bool     `json:"enabled"`
}

// RecordedRequest is a request received on a non-control route.
type RecordedRequest struct {
	Method  string              `json:"method"`
	Path    string              `json:"path"`
	Query   map[string][]string `json:"query"`
	Body    string              `json:"body"`
	Headers map[string]string   `json:"headers"`
}

// Server is an in-process mock of the authentication API used by services under test.
type Server struct {
	server   *http.Server
	listener net.Listener
	baseURL  string
	key      *rsa.PrivateKey
	kid      string
	log      *zap.SugaredLogger

	mu                 sync.Mutex
	tokens             map[string]Token
	wrongACL           map[string]struct{}
	invalidCredentials map[Credentials]struct{}
	users              map[string]User
	requests           []RecordedRequest
}

// NewServer binds addr, ":0" picking a free port, without serving yet.
func NewServer(addr string) (*Server, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	s := &Server{
		listener: listener,
		baseURL:  "http://" + listener.Addr().String(),
		key:      key,
		kid:      uuid.NewString(),
		log:      zap.S().Named("authmock"),
	}
	s.reset()
	s.server = &http.Server{
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(zap.L().Named("authmock"), time.RFC3339, true),
		ginzap.RecoveryWithZap(zap.L().Named("authmock"), true),
		s.record,
	)

	v := engine.Group("/0.1")
	v.HEAD("/token/:token", s.headToken)
	v.GET("/token/:token", s.getToken)
	v.POST("/token", s.createToken)
	v.GET("/certs", s.certs)
	v.GET("/users", s.listUsers)
	v.POST("/users", s.createUser)
	v.GET("/users/:uuid", s.getUser)

	engine.POST("/_set_token", s.setToken)
	engine.DELETE("/_remove_token/:token", s.removeToken)
	engine.POST("/_add_invalid_credentials", s.addInvalidCredentials)
	engine.GET("/_requests", s.listRequests)
	engine.POST("/_reset", s.resetRequests)

	return engine
}

// Start serves in the background until Stop.
func (s *Server) Start() {
	go func() {
		s.log.Infow("auth mock started", "url", s.baseURL)
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Errorw("auth mock stopped", "error", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) URL() string {
	return s.baseURL
}

// SetToken registers a token accepted by the token check endpoint.
func (s *Server) SetToken(t Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.Token] = t
}

func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// reset restores the initial tokens, credentials and users, and forgets requests.
func (s *Server) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]Token{
		ValidToken: {
			Token:    ValidToken,
			AuthID:   defaultAuthID,
			UserUUID: defaultAuthID,
			Metadata: map[string]any{
				"uuid":        defaultAuthID,
				"tenant_uuid": defaultTenantUUID,
				"tenants":     []map[string]string{{"uuid": defaultTenantUUID, "name": "valid-tenant"}},
			},
		},
	}
	s.wrongACL = map[string]struct{}{WrongACLToken: {}}
	s.invalidCredentials = map[Credentials]struct{}{{Username: "test", Password: "foobar"}: {}}
	s.users = map[string]User{}
	s.requests = nil
}
