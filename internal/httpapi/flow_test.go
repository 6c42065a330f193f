// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RecycleHub Contributors

package httpapi_test

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/recyclehub/recyclehub/internal/auth"
	"github.com/recyclehub/recyclehub/internal/httpapi"
)

var _ = Describe("Account lifecycle", func() {
	var env *apiEnv

	const (
		email    = "dana@example.com"
		password = "first-Passw0rd"
	)

	post := func(path string, body any) *apiResponse {
		GinkgoHelper()
		resp, err := env.call(http.MethodPost, path, body, nil)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	code := func(purpose auth.Purpose) string {
		GinkgoHelper()
		c, ok := env.outbox.lastCode(email, purpose)
		Expect(ok).To(BeTrue(), "no %s code sent", purpose)
		return c
	}

	BeforeEach(func() {
		var err error
		env, err = newAPIEnv(envConfig{})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(env.Close)
	})

	It("walks signup, verification, login, profile and password reset", func() {
		By("signing up")
		resp := post("/signup", map[string]any{
			"name": "Dana", "email": email, "password": password, "city": "Lyon",
		})
		Expect(resp.Status).To(Equal(http.StatusCreated))
		Expect(resp.Body["user"]).To(HaveKeyWithValue("emailVerified", false))

		By("verifying the email with the delivered code")
		resp = post("/verify-email", map[string]any{"email": email, "code": code(auth.PurposeEmailVerify)})
		Expect(resp.Status).To(Equal(http.StatusOK))
		Expect(resp.Body).To(HaveKeyWithValue("message", "Email verified successfully"))

		By("logging in")
		resp = post("/login", map[string]any{"email": email, "password": password})
		Expect(resp.Status).To(Equal(http.StatusOK))
		token, ok := resp.Body["token"].(string)
		Expect(ok).To(BeTrue())
		Expect(resp.Body["user"]).To(HaveKeyWithValue("emailVerified", true))

		By("reading the profile with the session token")
		me, err := env.call(http.MethodGet, "/me", nil, bearer(token))
		Expect(err).NotTo(HaveOccurred())
		Expect(me.Status).To(Equal(http.StatusOK))
		Expect(me.Body["user"]).To(SatisfyAll(
			HaveKeyWithValue("email", email),
			HaveKeyWithValue("city", "Lyon"),
			Not(HaveKey("passwordHash")),
		))

		By("requesting a password reset")
		resp = post("/forgot-password", map[string]any{"email": email})
		Expect(resp.Status).To(Equal(http.StatusOK))

		By("rejecting a wrong reset code")
		resp = post("/reset-password", map[string]any{
			"email": email, "code": "not-it", "newPassword": "second-Passw0rd",
		})
		Expect(resp.Status).To(Equal(http.StatusBadRequest))
		Expect(resp.Body).To(HaveKeyWithValue("message", "Invalid or expired code"))

		By("resetting with the delivered code")
		resetCode := code(auth.PurposePasswordReset)
		resp = post("/reset-password", map[string]any{
			"email": email, "code": resetCode, "newPassword": "second-Passw0rd",
		})
		Expect(resp.Status).To(Equal(http.StatusOK))

		By("refusing to reuse the consumed code")
		resp = post("/reset-password", map[string]any{
			"email": email, "code": resetCode, "newPassword": "third-Passw0rd",
		})
		Expect(resp.Status).To(Equal(http.StatusBadRequest))

		By("logging in with the new password only")
		resp = post("/login", map[string]any{"email": email, "password": password})
		Expect(resp.Status).To(Equal(http.StatusUnauthorized))
		resp = post("/login", map[string]any{"email": email, "password": "second-Passw0rd"})
		Expect(resp.Status).To(Equal(http.StatusOK))
	})

	It("expires session tokens after their TTL", func() {
		Expect(post("/signup", map[string]any{"name": "Dana", "email": email, "password": password}).Status).
			To(Equal(http.StatusCreated))
		resp := post("/login", map[string]any{"email": email, "password": password})
		token := resp.Body["token"].(string)

		env.clock.Advance(auth.DefaultTokenTTL + time.Second)

		me, err := env.call(http.MethodGet, "/me", nil, bearer(token))
		Expect(err).NotTo(HaveOccurred())
		Expect(me.Status).To(Equal(http.StatusUnauthorized))
	})

	It("reports unknown users on the code routes", func() {
		resp := post("/verify-email", map[string]any{"email": "ghost@example.com", "code": "123456"})
		Expect(resp.Status).To(Equal(http.StatusNotFound))
		Expect(resp.Body).To(HaveKeyWithValue("message", "User not found"))
	})

	It("serves every route under the API prefix", func() {
		resp := post(httpapi.PathPrefix+"/signup", map[string]any{
			"name": "Dana", "email": email, "password": password,
		})
		Expect(resp.Status).To(Equal(http.StatusCreated))

		resp = post(httpapi.PathPrefix+"/login", map[string]any{"email": email, "password": password})
		Expect(resp.Status).To(Equal(http.StatusOK))
	})
})

var _ = Describe("Rate limiting", func() {
	It("throttles the public routes per client and leaves /me alone", func() {
		limiter := httpapi.NewRateLimiter(httpapi.RateLimiterConfig{Rate: 0.5, Burst: 2}, discardLogger())
		DeferCleanup(limiter.Stop)

		env, err := newAPIEnv(envConfig{router: httpapi.Options{RateLimiter: limiter}})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(env.Close)

		body := map[string]any{"email": "nobody@example.com", "password": "pw"}
		for range 2 {
			resp, err := env.call(http.MethodPost, "/login", body, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(http.StatusNotFound))
		}

		resp, err := env.call(http.MethodPost, "/login", body, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(http.StatusTooManyRequests))
		Expect(resp.Header.Get("Retry-After")).To(Equal("2"))
		Expect(resp.Body).To(HaveKeyWithValue("code", "RATE_LIMITED"))

		resp, err = env.call(http.MethodGet, "/me", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(http.StatusUnauthorized))
	})
})
