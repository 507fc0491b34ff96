package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/iexsys/iexsys-backend/internal/config"
	"github.com/iexsys/iexsys-backend/internal/handler"
	"github.com/iexsys/iexsys-backend/internal/middleware"
	"github.com/iexsys/iexsys-backend/internal/response"
	"github.com/iexsys/iexsys-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	Paper    *handler.PaperHandler
	Room     *handler.ExamRoomHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Auth group (public, rate limited).
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// Student group (JWT + single device session).
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.POST("/papers/:paper_id/join", handlers.Room.JoinExam)
		studentAPI.GET("/rooms", handlers.Room.ListSessions)
		studentAPI.POST("/rooms/:room_id/start", handlers.Room.StartExam)
		studentAPI.GET("/rooms/:room_id/questions", handlers.Room.GetQuestions)
		studentAPI.GET("/rooms/:room_id/state", handlers.Room.GetState)
		studentAPI.PUT("/rooms/:room_id/answers", handlers.Room.SubmitAnswer)
		studentAPI.POST("/rooms/:room_id/submit", handlers.Room.SubmitExam)
	}

	// WebSocket group (student WS auth via query token).
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/rooms/:room_id/stream", handlers.WS.RoomStream)
	}

	// Teacher group (JWT, teacher role).
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		// Question bank
		teacherAPI.GET("/questions", handlers.Question.ListQuestions)
		teacherAPI.POST("/questions", handlers.Question.CreateQuestion)
		teacherAPI.GET("/questions/:question_id", handlers.Question.GetQuestion)
		teacherAPI.PUT("/questions/:question_id", handlers.Question.UpdateQuestion)
		teacherAPI.DELETE("/questions/:question_id", handlers.Question.DeleteQuestion)

		// Tags
		teacherAPI.GET("/tags", handlers.Question.ListTags)
		teacherAPI.POST("/tags", handlers.Question.CreateTag)

		// Papers and assembly
		teacherAPI.GET("/papers", handlers.Paper.ListPapers)
		teacherAPI.POST("/papers", handlers.Paper.CreatePaper)
		teacherAPI.GET("/papers/:paper_id", handlers.Paper.GetPaper)
		teacherAPI.POST("/papers/:paper_id/assemble", handlers.Paper.AssemblePaper)
		teacherAPI.PUT("/papers/:paper_id/questions", handlers.Paper.AdjustPaper)

		// Student session administration
		teacherAPI.POST("/students/:student_id/reset-session", handlers.Auth.ResetStudentSession)
	}

	return router
}
