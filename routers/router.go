package routers

import (
	authController "learnhub/controllers/auth"
	courseController "learnhub/controllers/course"
	paymentController "learnhub/controllers/payment"
	progressController "learnhub/controllers/progress"
	userProfileController "learnhub/controllers/userControllers"
	"learnhub/middleware"
	"learnhub/routers/authRoutes"
	"learnhub/routers/courseRoutes"
	"learnhub/routers/paymentRoutes"
	"learnhub/routers/progressRoutes"
	userProfileRoutes "learnhub/routers/userRoutes"
	"learnhub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Services is everything the HTTP surface calls into
type Services struct {
	Users       *services.UserService
	Catalog     *services.Catalog
	Enrollments *services.EnrollmentService
	Progress    *services.ProgressService
	Ratings     *services.RatingService
	Analytics   *services.AnalyticsService
	Reconciler  *services.Reconciler
}

type Options struct {
	AccessLog bool
}

// NewApp builds the fiber app with middleware and every route mounted
func NewApp(svc Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return middleware.JsonResponse(c, fe.Code, false, fe.Message, nil)
			}
			return middleware.ErrorResponse(c, err)
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		}))
	}

	Setup(app, svc)
	return app
}

func Setup(app *fiber.App, svc Services) {
	courseHandler := courseController.NewHandler(svc.Catalog, svc.Ratings, svc.Analytics, svc.Reconciler, svc.Users)

	authRoutes.SetupAuthRoutes(app, authController.NewHandler(svc.Users))
	courseRoutes.SetupCourseRoutes(app, courseHandler)
	courseRoutes.SetupAdminRoutes(app, courseHandler)
	paymentRoutes.SetupPaymentRoutes(app, paymentController.NewHandler(svc.Enrollments))
	progressRoutes.SetupProgressRoutes(app, progressController.NewHandler(svc.Progress))
	userProfileRoutes.SetupUserRoutes(app, userProfileController.NewHandler(svc.Users, svc.Enrollments))
}
