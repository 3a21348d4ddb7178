package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// GateResult is the outcome of an admin authorization check.
type GateResult struct {
	OK        bool
	Actor     string
	Status    int
	ErrorCode string
}

// AdminGate is the external authorization collaborator guarding admin routes.
type AdminGate interface {
	RequireAdmin(headers http.Header) GateResult
}

// StaticTokenGate authorizes admins by a shared bearer token. The acting
// admin identifies itself through the X-Admin-ID header.
type StaticTokenGate struct {
	Token string
}

// RequireAdmin validates the Authorization header against the configured token.
func (g *StaticTokenGate) RequireAdmin(headers http.Header) GateResult {
	if g.Token == "" {
		return GateResult{Status: http.StatusServiceUnavailable, ErrorCode: "admin_gate_unconfigured"}
	}

	auth := headers.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return GateResult{Status: http.StatusUnauthorized, ErrorCode: "unauthorized"}
	}
	if token != g.Token {
		return GateResult{Status: http.StatusForbidden, ErrorCode: "forbidden"}
	}

	actor := headers.Get("X-Admin-ID")
	if actor == "" {
		actor = "admin"
	}
	return GateResult{OK: true, Actor: actor}
}

const actorKey = "actor"

// adminOnly rejects requests the gate does not authorize and records the
// acting admin on the context.
func adminOnly(gate AdminGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := gate.RequireAdmin(c.Request.Header)
		if !res.OK {
			c.AbortWithStatusJSON(res.Status, gin.H{"error": res.ErrorCode})
			return
		}
		c.Set(actorKey, res.Actor)
		c.Next()
	}
}
