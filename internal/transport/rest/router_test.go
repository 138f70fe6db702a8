package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/helpdesk/internal/auth"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
	"github.com/frahmantamala/helpdesk/internal/db"
	"github.com/frahmantamala/helpdesk/internal/ticket"
	ticketPostgres "github.com/frahmantamala/helpdesk/internal/ticket/postgres"
	"github.com/frahmantamala/helpdesk/internal/transport"
	"github.com/frahmantamala/helpdesk/internal/transport/openapi"
	"github.com/frahmantamala/helpdesk/internal/transport/rest"
	"github.com/frahmantamala/helpdesk/internal/user"
	userPostgres "github.com/frahmantamala/helpdesk/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

const jwtSecret = "end-to-end-secret-with-at-least-32-bytes"

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ = Describe("Helpdesk API", func() {
	var (
		ctx         context.Context
		handle      *db.Handle
		router      *chi.Mux
		userService *user.Service
		codec       *auth.JWTCodec
		validate    bool
	)

	do := func(method, path, token string, body interface{}) *httptest.ResponseRecorder {
		var rdr io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			Expect(err).NotTo(HaveOccurred())
			rdr = bytes.NewReader(raw)
		}
		req := httptest.NewRequest(method, path, rdr)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, dst interface{}) {
		ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), dst)).To(Succeed(), rec.Body.String())
	}

	errCode := func(rec *httptest.ResponseRecorder) string {
		var body errorBody
		decode(rec, &body)
		return body.Error.Code
	}

	login := func(email, password string) string {
		rec := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
		ExpectWithOffset(1, rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		var tokens auth.AuthTokens
		decode(rec, &tokens)
		return tokens.AccessToken
	}

	register := func(email, password string) coreuser.Identity {
		rec := do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": email, "password": password})
		ExpectWithOffset(1, rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
		var identity coreuser.Identity
		decode(rec, &identity)
		return identity
	}

	seed := func(email string, role coreuser.Role) *coreuser.Identity {
		identity, err := userService.Create(ctx, user.CreateUserDTO{Email: email, Password: "staff-password", Role: &role})
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return identity
	}

	BeforeEach(func() {
		validate = false
	})

	JustBeforeEach(func() {
		var err error
		ctx = context.Background()
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))

		handle, err = db.OpenMemory(ctx)
		Expect(err).NotTo(HaveOccurred())

		hasher := auth.NewBcryptHasher(bcrypt.MinCost)
		codec, err = auth.NewJWTCodec(jwtSecret, "HS256")
		Expect(err).NotTo(HaveOccurred())

		userRepo := userPostgres.NewUserRepository(handle.Gorm)
		userService = user.NewService(userRepo, hasher, lg)
		authService := auth.NewService(userRepo, hasher, codec, 30*time.Minute, lg)
		ticketService := ticket.NewService(ticketPostgres.NewTicketRepository(handle.Gorm, handle.SQL), lg)

		deps := rest.Dependencies{
			DB:            handle,
			AuthHandler:   auth.NewHandler(authService),
			RBAC:          auth.NewRBACAuthorization(lg),
			UserHandler:   user.NewHandler(userService),
			TicketHandler: ticket.NewHandler(ticketService),
			MetricsPath:   "/metrics",
			Logger:        lg,
		}
		if validate {
			doc, err := openapi.Load(ctx)
			Expect(err).NotTo(HaveOccurred())
			deps.Validator, err = openapi.NewValidator(doc, transport.NewBaseHandler(lg))
			Expect(err).NotTo(HaveOccurred())
		}
		router = rest.NewRouter(deps)
	})

	AfterEach(func() {
		Expect(handle.Close()).To(Succeed())
	})

	Describe("public endpoints", func() {
		It("reports health with the database", func() {
			rec := do(http.MethodGet, "/api/v1/health", "", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`"healthy"`))
		})

		It("serves the API document and metrics", func() {
			Expect(do(http.MethodGet, "/openapi.yml", "", nil).Code).To(Equal(http.StatusOK))
			do(http.MethodGet, "/api/v1/ping", "", nil)
			rec := do(http.MethodGet, "/metrics", "", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("helpdesk_http_requests_total"))
		})

		It("tags every response with a trace id", func() {
			rec := do(http.MethodGet, "/api/v1/ping", "", nil)
			Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
		})
	})

	Describe("registration and login", func() {
		It("registers a user whose token resolves to that identity", func() {
			created := register("user@x.com", "pw123456")
			Expect(created.Role).To(Equal(coreuser.RoleUser))

			token := login("user@x.com", "pw123456")
			rec := do(http.MethodGet, "/api/v1/users/me", token, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var me coreuser.Identity
			decode(rec, &me)
			Expect(me.ID).To(Equal(created.ID))
			Expect(me.Email).To(Equal("user@x.com"))
			Expect(me.Role).To(Equal(coreuser.RoleUser))
			Expect(rec.Body.String()).NotTo(ContainSubstring("password"))
		})

		It("rejects a role smuggled into registration", func() {
			rec := do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "sneaky@x.com", "password": "pw123456", "role": "admin"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("returns the role with the token", func() {
			seed("boss@x.com", coreuser.RoleAdmin)
			rec := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "boss@x.com", "password": "staff-password"})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var tokens auth.AuthTokens
			decode(rec, &tokens)
			Expect(tokens.TokenType).To(Equal("bearer"))
			Expect(tokens.UserRole).To(Equal(coreuser.RoleAdmin))
		})

		It("gives the same error for a wrong password and an unknown email", func() {
			register("user@x.com", "pw123456")

			wrong := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "user@x.com", "password": "nope-nope"})
			unknown := do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "nope-nope"})

			Expect(wrong.Code).To(Equal(http.StatusUnauthorized))
			Expect(unknown.Code).To(Equal(http.StatusUnauthorized))
			Expect(errCode(wrong)).To(Equal("INVALID_CREDENTIALS"))
			Expect(wrong.Body.String()).To(Equal(unknown.Body.String()))
			Expect(wrong.Header().Get("WWW-Authenticate")).To(Equal("Bearer"))
		})

		It("rejects a duplicate email as a client error", func() {
			register("user@x.com", "pw123456")
			rec := do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "User@X.com", "password": "pw123456"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errCode(rec)).To(Equal("DUPLICATE_EMAIL"))
		})

		It("rejects a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errCode(rec)).To(Equal("INVALID_REQUEST_BODY"))
		})
	})

	Describe("authentication", func() {
		It("requires a token on protected routes", func() {
			rec := do(http.MethodGet, "/api/v1/tickets", "", nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(errCode(rec)).To(Equal("MISSING_TOKEN"))
		})

		It("rejects a forged token", func() {
			other, err := auth.NewJWTCodec("some-other-secret-of-sufficient-length", "HS256")
			Expect(err).NotTo(HaveOccurred())
			register("user@x.com", "pw123456")
			forged, err := other.Issue("user@x.com", time.Hour)
			Expect(err).NotTo(HaveOccurred())

			rec := do(http.MethodGet, "/api/v1/users/me", forged, nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(errCode(rec)).To(Equal("INVALID_TOKEN"))
		})

		It("rejects an expired token", func() {
			register("user@x.com", "pw123456")
			expired, err := codec.Issue("user@x.com", -time.Minute)
			Expect(err).NotTo(HaveOccurred())

			rec := do(http.MethodGet, "/api/v1/users/me", expired, nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("cuts off a deactivated account immediately", func() {
			seed("admin@x.com", coreuser.RoleAdmin)
			victim := register("user@x.com", "pw123456")
			userToken := login("user@x.com", "pw123456")
			adminToken := login("admin@x.com", "staff-password")

			rec := do(http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", victim.ID), adminToken, map[string]bool{"is_active": false})
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec = do(http.MethodGet, "/api/v1/users/me", userToken, nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(errCode(rec)).To(Equal("USER_INACTIVE"))

			rec = do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "user@x.com", "password": "pw123456"})
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(errCode(rec)).To(Equal("USER_INACTIVE"))
		})

		It("rejects the token of a deleted account", func() {
			seed("admin@x.com", coreuser.RoleAdmin)
			victim := register("user@x.com", "pw123456")
			userToken := login("user@x.com", "pw123456")
			adminToken := login("admin@x.com", "staff-password")

			rec := do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", victim.ID), adminToken, nil)
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			rec = do(http.MethodGet, "/api/v1/users/me", userToken, nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(errCode(rec)).To(Equal("USER_NOT_FOUND"))
		})
	})

	Describe("tickets", func() {
		var (
			ownerToken    string
			strangerToken string
			operatorToken string
			ticketID      int64
		)

		JustBeforeEach(func() {
			register("owner@x.com", "pw123456")
			register("stranger@x.com", "pw123456")
			seed("op@x.com", coreuser.RoleOperator)
			ownerToken = login("owner@x.com", "pw123456")
			strangerToken = login("stranger@x.com", "pw123456")
			operatorToken = login("op@x.com", "staff-password")

			rec := do(http.MethodPost, "/api/v1/tickets", ownerToken, map[string]string{
				"topic":       "Cannot print",
				"description": "The printer on floor 2 only prints blank pages",
			})
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
			var t ticket.Ticket
			decode(rec, &t)
			Expect(t.AwaitsResponse).To(BeTrue())
			Expect(t.Priority).To(Equal(ticket.PriorityLow))
			ticketID = t.ID
		})

		It("shows a ticket to its owner and to staff but not to another user", func() {
			path := fmt.Sprintf("/api/v1/tickets/%d", ticketID)

			Expect(do(http.MethodGet, path, ownerToken, nil).Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodGet, path, operatorToken, nil).Code).To(Equal(http.StatusOK))

			rec := do(http.MethodGet, path, strangerToken, nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(rec.Body.String()).To(ContainSubstring("ticket not found"))
		})

		It("lists only the caller's own tickets", func() {
			rec := do(http.MethodGet, "/api/v1/tickets", strangerToken, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var page transport.PageResult[ticket.Ticket]
			decode(rec, &page)
			Expect(page.Total).To(BeZero())
			Expect(page.Items).To(BeEmpty())
			Expect(page.Limit).To(Equal(transport.DefaultPageLimit))
		})

		It("keeps the staff listing behind the staff gate", func() {
			rec := do(http.MethodGet, "/api/v1/tickets/all", ownerToken, nil)
			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(errCode(rec)).To(Equal("FORBIDDEN"))

			rec = do(http.MethodGet, "/api/v1/tickets/all?skip=0&limit=5", operatorToken, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var page transport.PageResult[ticket.StaffTicket]
			decode(rec, &page)
			Expect(page.Total).To(Equal(int64(1)))
			Expect(page.Items[0].UserEmail).To(Equal("owner@x.com"))
			Expect(page.Items[0].UserRole).To(Equal(coreuser.RoleUser))
		})

		It("lets staff answer a ticket and nobody else", func() {
			path := fmt.Sprintf("/api/v1/tickets/%d/response", ticketID)

			rec := do(http.MethodPatch, path, ownerToken, map[string]string{"response": "fixed it myself"})
			Expect(rec.Code).To(Equal(http.StatusForbidden))

			rec = do(http.MethodPatch, path, operatorToken, map[string]string{"response": "Replace the toner"})
			Expect(rec.Code).To(Equal(http.StatusOK))
			var t ticket.Ticket
			decode(rec, &t)
			Expect(*t.Response).To(Equal("Replace the toner"))
			Expect(t.AwaitsResponse).To(BeTrue())

			rec = do(http.MethodPatch, path, operatorToken, map[string]interface{}{"response": "Toner replaced", "awaits_response": false})
			Expect(rec.Code).To(Equal(http.StatusOK))
			decode(rec, &t)
			Expect(t.AwaitsResponse).To(BeFalse())
		})

		It("validates pagination", func() {
			Expect(do(http.MethodGet, "/api/v1/tickets?limit=0", ownerToken, nil).Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodGet, "/api/v1/tickets?limit=101", ownerToken, nil).Code).To(Equal(http.StatusBadRequest))
			Expect(do(http.MethodGet, "/api/v1/tickets?offset=-1", ownerToken, nil).Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a non-numeric id", func() {
			rec := do(http.MethodGet, "/api/v1/tickets/abc", ownerToken, nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errCode(rec)).To(Equal("INVALID_ID"))
		})
	})

	Describe("user management", func() {
		var (
			adminToken    string
			operatorToken string
			target        coreuser.Identity
			operator      *coreuser.Identity
		)

		JustBeforeEach(func() {
			seed("admin@x.com", coreuser.RoleAdmin)
			operator = seed("op@x.com", coreuser.RoleOperator)
			target = register("target@x.com", "pw123456")
			adminToken = login("admin@x.com", "staff-password")
			operatorToken = login("op@x.com", "staff-password")
		})

		It("lets an admin promote a user and forbids an operator from doing the same", func() {
			path := fmt.Sprintf("/api/v1/users/%d", target.ID)

			rec := do(http.MethodPatch, path, operatorToken, map[string]string{"role": "operator"})
			Expect(rec.Code).To(Equal(http.StatusForbidden))

			rec = do(http.MethodPatch, path, adminToken, map[string]string{"role": "operator"})
			Expect(rec.Code).To(Equal(http.StatusOK))
			var updated coreuser.Identity
			decode(rec, &updated)
			Expect(updated.Role).To(Equal(coreuser.RoleOperator))

			// the new role applies to the existing token straight away
			targetToken := login("target@x.com", "pw123456")
			Expect(do(http.MethodGet, "/api/v1/tickets/all", targetToken, nil).Code).To(Equal(http.StatusOK))
		})

		It("refuses a self role change by a non-admin", func() {
			rec := do(http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", operator.ID), operatorToken, map[string]string{"role": "admin"})
			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("allows a self edit without a role field", func() {
			rec := do(http.MethodPatch, fmt.Sprintf("/api/v1/users/%d", operator.ID), operatorToken, map[string]string{"password": "a-brand-new-pass"})
			Expect(rec.Code).To(Equal(http.StatusOK))
			login("op@x.com", "a-brand-new-pass")
		})

		It("gates listing, reading and deleting by role", func() {
			Expect(do(http.MethodGet, "/api/v1/users", operatorToken, nil).Code).To(Equal(http.StatusForbidden))
			Expect(do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", target.ID), operatorToken, nil).Code).To(Equal(http.StatusOK))
			Expect(do(http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", target.ID), operatorToken, nil).Code).To(Equal(http.StatusForbidden))

			rec := do(http.MethodGet, "/api/v1/users?limit=2", adminToken, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var page transport.PageResult[coreuser.Identity]
			decode(rec, &page)
			Expect(page.Total).To(Equal(int64(3)))
			Expect(page.Items).To(HaveLen(2))
		})

		It("lets an admin create staff accounts", func() {
			rec := do(http.MethodPost, "/api/v1/users", adminToken, map[string]string{"email": "op2@x.com", "password": "pw123456", "role": "operator"})
			Expect(rec.Code).To(Equal(http.StatusCreated))
			var created coreuser.Identity
			decode(rec, &created)
			Expect(created.Role).To(Equal(coreuser.RoleOperator))
		})

		It("reports a missing user as not found", func() {
			rec := do(http.MethodGet, "/api/v1/users/9999", adminToken, nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("with request validation enabled", func() {
		BeforeEach(func() {
			validate = true
		})

		It("rejects a schema violation before it reaches the handler", func() {
			rec := do(http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{"email": 42, "password": "x"})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errCode(rec)).To(Equal("VALIDATION_FAILED"))
		})

		It("authenticates before checking the body against the schema", func() {
			rec := do(http.MethodPost, "/api/v1/tickets", "", map[string]interface{}{"topic": 1})
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(errCode(rec)).To(Equal("MISSING_TOKEN"))
			Expect(rec.Body.String()).NotTo(ContainSubstring("schema"))
		})

		It("checks the schema once the caller is known", func() {
			register("user@x.com", "pw123456")
			token := login("user@x.com", "pw123456")
			rec := do(http.MethodPost, "/api/v1/tickets", token, map[string]interface{}{"topic": 1})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(errCode(rec)).To(Equal("VALIDATION_FAILED"))
		})

		It("still serves valid requests", func() {
			register("user@x.com", "pw123456")
			token := login("user@x.com", "pw123456")
			Expect(do(http.MethodGet, "/api/v1/tickets/all", token, nil).Code).To(Equal(http.StatusForbidden))
			Expect(do(http.MethodGet, "/api/v1/tickets", token, nil).Code).To(Equal(http.StatusOK))
		})
	})
})
