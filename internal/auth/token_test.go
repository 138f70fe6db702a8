package auth

import (
	"strings"
	"time"

	"github.com/frahmantamala/helpdesk/internal"
	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

const testSecret = "a-test-secret-that-is-long-enough-123456"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var _ = ginkgo.Describe("JWTCodec", func() {
	var (
		clock *fakeClock
		codec *JWTCodec
	)

	ginkgo.BeforeEach(func() {
		clock = &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
		var err error
		codec, err = NewJWTCodec(testSecret, "HS256", WithClock(clock.Now))
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
	})

	ginkgo.Describe("NewJWTCodec", func() {
		ginkgo.It("rejects an empty secret", func() {
			_, err := NewJWTCodec("", "HS256")
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("rejects non-HMAC algorithms", func() {
			_, err := NewJWTCodec(testSecret, "RS256")
			gomega.Expect(err).To(gomega.HaveOccurred())
			_, err = NewJWTCodec(testSecret, "none")
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("defaults to HS256", func() {
			c, err := NewJWTCodec(testSecret, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(c.method.Alg()).To(gomega.Equal("HS256"))
		})
	})

	ginkgo.It("round-trips the subject before expiry", func() {
		token, err := codec.Issue("alice@example.com", 30*time.Minute)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		clock.Advance(29 * time.Minute)
		subject, err := codec.Verify(token)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(subject).To(gomega.Equal("alice@example.com"))
	})

	ginkgo.It("rejects a token exactly at its expiry", func() {
		token, err := codec.Issue("alice@example.com", 30*time.Minute)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		clock.Advance(30 * time.Minute)
		_, err = codec.Verify(token)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("rejects a token past its expiry", func() {
		token, err := codec.Issue("alice@example.com", time.Minute)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		clock.Advance(2 * time.Hour)
		_, err = codec.Verify(token)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("rejects a token signed with another secret", func() {
		other, err := NewJWTCodec("another-secret-that-is-long-enough-000", "HS256", WithClock(clock.Now))
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		token, err := other.Issue("alice@example.com", time.Hour)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = codec.Verify(token)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("rejects a token signed with another algorithm", func() {
		other, err := NewJWTCodec(testSecret, "HS512", WithClock(clock.Now))
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		token, err := other.Issue("alice@example.com", time.Hour)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = codec.Verify(token)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("rejects an unsigned token", func() {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = codec.Verify(token)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("rejects a tampered payload", func() {
		token, err := codec.Issue("alice@example.com", time.Hour)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		forged, err := codec.Issue("admin@example.com", time.Hour)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		parts := strings.Split(token, ".")
		forgedParts := strings.Split(forged, ".")
		mixed := parts[0] + "." + forgedParts[1] + "." + parts[2]

		_, err = codec.Verify(mixed)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("rejects garbage and empty input", func() {
		_, err := codec.Verify("not.a.jwt")
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		_, err = codec.Verify("")
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("rejects a token without a subject", func() {
		token, err := codec.Issue("", time.Hour)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = codec.Verify(token)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})

	ginkgo.It("rejects a token without an expiry", func() {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice@example.com"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		_, err = codec.Verify(token)
		gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
	})
})
