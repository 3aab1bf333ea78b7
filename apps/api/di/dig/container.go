package dig_container

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/arnalearn/arna/apps/api/echo"
	"github.com/arnalearn/arna/core"
	"github.com/arnalearn/arna/core/assignment"
	"github.com/arnalearn/arna/core/progress"
	"github.com/arnalearn/arna/core/quiz"
	"github.com/arnalearn/arna/core/user"
	emailsvc "github.com/arnalearn/arna/services/email"
	logsvc "github.com/arnalearn/arna/services/logger"
	reportsvc "github.com/arnalearn/arna/services/report"
	"github.com/arnalearn/arna/storage/database"
	sqlxrepos "github.com/arnalearn/arna/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       *user.Service
	AssignmentSvc *assignment.Service
	QuizSvc       *quiz.Service
	ProgressSvc   *progress.Service
	Reports       *reportsvc.PDFRenderer
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sql.DB, *sqlx.DB) {
	setUp := func() (*sql.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, sqlxrepos.NewDB(db)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newQuizService(
	conf *core.Config,
	repo progress.Repository,
	asgSvc *assignment.Service,
	usrSvc *user.Service,
	mailSvc core.EmailService,
	logger core.Logger,
) *quiz.Service {
	return quiz.NewService(repo, asgSvc, usrSvc, mailSvc, logger, quiz.Options{
		PointsPerQuestion:  conf.Quiz.PointsPerQuestion,
		NotifyOnSubmission: conf.Notify.OnSubmission,
	})
}

func newProgressService(repo progress.Repository, usrSvc *user.Service, asgSvc *assignment.Service) *progress.Service {
	return progress.NewService(repo, usrSvc, asgSvc)
}

func newReportRenderer(conf *core.Config) *reportsvc.PDFRenderer {
	return reportsvc.NewPDFRenderer(conf.AppName)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(p.Conf, echoapi.Deps{
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		AssignmentSvc: p.AssignmentSvc,
		QuizSvc:       p.QuizSvc,
		ProgressSvc:   p.ProgressSvc,
		Reports:       p.Reports,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewAssignmentRepository, dig.As(new(assignment.Repository))))
	must(c.Provide(sqlxrepos.NewProgressRepository, dig.As(new(progress.Repository))))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(assignment.NewService))
	must(c.Provide(newQuizService))
	must(c.Provide(newProgressService))
	must(c.Provide(newReportRenderer))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
