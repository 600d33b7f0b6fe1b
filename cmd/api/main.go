package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coaching-center/backend/internal/config"
	"github.com/coaching-center/backend/internal/database"
	"github.com/coaching-center/backend/internal/handlers"
	"github.com/coaching-center/backend/internal/middleware"
	"github.com/coaching-center/backend/internal/models"
	"github.com/coaching-center/backend/internal/ranking"
	"github.com/coaching-center/backend/internal/services"
	"github.com/coaching-center/backend/internal/sms"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title Coaching Center Ranking API
// @version 1.0
// @description Monthly ranking engine for multi-batch coaching centers
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if len(os.Args) > 1 {
		handleCommand(os.Args[1])
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if cfg.Server.Env == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	registerValidations()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowed := range cfg.CORS.Origins {
			if origin == allowed {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Health check - simple endpoint that doesn't require DB
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "coaching-center-api"})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Coaching Center Ranking API", "status": "running"})
	})

	// Metrics
	if cfg.Monitoring.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Services
	authService := services.NewAuthService(db, cfg)
	auditService := services.NewAuditService(db)
	enrollmentService := services.NewEnrollmentService(db, authService)
	rankingService := ranking.NewService(db, cfg)
	smsBuilder := sms.NewBuilder(sms.DefaultTemplates(), cfg.SMS.MaxWeightedLen)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	batchHandler := handlers.NewBatchHandler(enrollmentService)
	periodHandler := handlers.NewPeriodHandler(db, rankingService)
	scoreHandler := handlers.NewScoreHandler(rankingService, auditService)
	rankingHandler := handlers.NewRankingHandler(db, rankingService, smsBuilder, auditService)
	auditHandler := handlers.NewAuditHandler(db)

	// Routes
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		// Protected routes
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(authService))
		protected.Use(middleware.BatchScope(db))
		{
			// Admin only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/batches", batchHandler.Create)
				admin.POST("/batches/:id/students", batchHandler.EnrollStudent)
				admin.DELETE("/batches/:id/students/:studentId", batchHandler.WithdrawStudent)
				admin.GET("/audit/recent", auditHandler.GetRecentActivity)
			}

			// Teacher and admin routes
			staff := protected.Group("")
			staff.Use(middleware.RequireTeacher())
			{
				staff.GET("/batches", batchHandler.List)
				staff.GET("/batches/:id/students", batchHandler.ListStudents)

				staff.POST("/periods", periodHandler.Create)
				staff.POST("/periods/:id/components", periodHandler.AddComponent)
				staff.DELETE("/periods/:id/components/:componentId", periodHandler.DeleteComponent)
				staff.POST("/periods/:id/components/:componentId/scores", scoreHandler.Submit)
				staff.POST("/periods/:id/bonus", scoreHandler.SetBonus)
				staff.POST("/periods/:id/compute", rankingHandler.Compute)
				staff.POST("/periods/:id/publish", rankingHandler.Publish)
				staff.GET("/periods/:id/analytics", rankingHandler.Analytics)
				staff.POST("/periods/:id/notifications", rankingHandler.Notifications)
			}

			// Routes open to students within their batch scope
			protected.GET("/periods", periodHandler.List)
			protected.GET("/periods/:id", periodHandler.Get)
			protected.GET("/periods/:id/components", periodHandler.ListComponents)
			protected.GET("/periods/:id/ranking", rankingHandler.GetRanking)
			protected.GET("/periods/:id/merit-list", rankingHandler.MeritList)
		}
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// registerValidations adds the custom binding rules used in request
// structs, currently just the calendar month range.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
			m := fl.Field().Int()
			return m >= 1 && m <= 12
		})
	}
}

func handleCommand(cmd string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	switch cmd {
	case "migrate":
		if err := database.Migrate(db); err != nil {
			log.Fatal("Migration failed:", err)
		}
		log.Println("Migration completed successfully")

	case "seed-admin":
		seedAdmin(db, cfg)

	case "seed-demo":
		seedDemo(db, cfg)

	default:
		log.Printf("Unknown command: %s", cmd)
	}
}

func seedAdmin(db *gorm.DB, cfg *config.Config) {
	authService := services.NewAuthService(db, cfg)

	var count int64
	db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		log.Println("Admin already exists")
		return
	}

	admin := &models.User{
		Email:    "admin@coaching.local",
		FullName: "Center Administrator",
		Role:     "admin",
		IsActive: true,
	}
	if err := authService.CreateUser(admin, "Admin@123"); err != nil {
		log.Fatal("Failed to create admin:", err)
	}
	log.Println("Admin: admin@coaching.local / Admin@123")

	teacher := &models.User{
		Email:    "teacher@coaching.local",
		FullName: "Demo Teacher",
		Role:     "teacher",
		IsActive: true,
	}
	if err := authService.CreateUser(teacher, "Teacher@123"); err != nil {
		log.Fatal("Failed to create teacher:", err)
	}
	log.Println("Teacher: teacher@coaching.local / Teacher@123")
}

// seedDemo loads a small batch with students and a month of attendance so
// the ranking flow can be exercised end to end against a fresh database.
func seedDemo(db *gorm.DB, cfg *config.Config) {
	authService := services.NewAuthService(db, cfg)
	enrollment := services.NewEnrollmentService(db, authService)

	var count int64
	db.Model(&models.Batch{}).Count(&count)
	if count > 0 {
		log.Println("Batches already exist, skipping demo seed")
		return
	}

	batch, err := enrollment.CreateBatch("HSC Science 2026", "Science", nil)
	if err != nil {
		log.Fatal("Failed to create demo batch:", err)
	}

	demoStudents := []struct {
		name     string
		email    string
		guardian string
	}{
		{"Alice Rahman", "alice@coaching.local", "01711111111"},
		{"Babul Khan", "babul@coaching.local", "01722222222"},
		{"Chitra Das", "chitra@coaching.local", "01733333333"},
	}

	monthStart := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
	for i, ds := range demoStudents {
		student, err := enrollment.CreateStudent(ds.name, ds.email, "", ds.guardian, "Student@123")
		if err != nil {
			log.Fatal("Failed to create demo student:", err)
		}
		if _, err := enrollment.Enroll(student.ID, batch.ID); err != nil {
			log.Fatal("Failed to enroll demo student:", err)
		}

		// Stagger attendance so the ranking has varied inputs.
		for day := 0; day < 20-i*3; day++ {
			db.Create(&models.Attendance{
				StudentID: student.ID,
				BatchID:   batch.ID,
				Date:      monthStart.AddDate(0, 0, day),
				Status:    models.AttendancePresent,
			})
		}
	}

	log.Printf("Demo batch %q seeded with %d students", batch.Name, len(demoStudents))
}
