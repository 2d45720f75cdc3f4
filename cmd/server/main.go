package main

import (
	"log"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"mengchat/internal/db"
	"mengchat/internal/middleware"
	"mengchat/internal/router"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	// 初始化托管 KV（未配置时返回 nil，走本地兜底）
	store := db.Init()
	if store != nil {
		defer store.Close()
	}

	// Initialize Gin
	r := gin.Default()
	r.HandleMethodNotAllowed = true

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	cookieStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("mengchat_session", cookieStore))

	// 匿名身份：首次请求惰性分配用户 ID
	r.Use(middleware.Identity())

	router.RegisterRoutes(r, store)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("mengchat server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
