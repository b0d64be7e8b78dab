package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "bad json"})
		return
	}
	if req.Username == "" || req.Password == "" || req.Password2 == "" {
		c.JSON(400, gin.H{"error": "fill all fields"})
		return
	}
	if req.Password != req.Password2 {
		c.JSON(400, gin.H{"error": "passwords do not match"})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(400, gin.H{"error": "password too short"})
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(req.Password), 10)

	u, err := h.users.CreateUser(c.Request.Context(), req.Username, string(hash), "user")
	if err != nil {
		c.JSON(409, gin.H{"error": "username already exists"})
		return
	}
	h.users.LogAction(&u.ID, "register", "user registered")
	c.JSON(200, gin.H{"ok": true})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "bad json"})
		return
	}

	u, passHash, err := h.users.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		c.JSON(401, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(passHash), []byte(req.Password)) != nil {
		c.JSON(401, gin.H{"error": "invalid credentials"})
		return
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "dotaboost",
		},
	})
	s, _ := tok.SignedString([]byte(h.secret))

	secure := os.Getenv("COOKIE_SECURE") == "1"
	c.SetCookie(cookieName, s, 86400, "/", "", secure, true)

	h.users.LogAction(&u.ID, "login", "success")
	c.JSON(200, gin.H{"ok": true, "user": u})
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(cookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.users.GetUserByID(c.Request.Context(), uid(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(200, u)
}
