package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/api"
	"github.com/policeops/criminal-case-api/config"
	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
	"github.com/policeops/criminal-case-api/services"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Hub      *services.Hub
	dbHelper databases.DatabaseHelper
	client   databases.ClientHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	userDB := databases.NewUserDatabase(a.dbHelper)
	roleDB := databases.NewRoleDatabase(a.dbHelper)
	complaintDB := databases.NewComplaintDatabase(a.dbHelper)
	caseDB := databases.NewCaseDatabase(a.dbHelper)
	caseComplainantDB := databases.NewCaseComplainantDatabase(a.dbHelper)
	crimeSceneDB := databases.NewCrimeSceneReportDatabase(a.dbHelper)
	suspectDB := databases.NewSuspectDatabase(a.dbHelper)
	interrogationDB := databases.NewInterrogationDatabase(a.dbHelper)
	decisionDB := databases.NewCaptainDecisionDatabase(a.dbHelper)
	chiefApprovalDB := databases.NewChiefApprovalDatabase(a.dbHelper)
	trialDB := databases.NewTrialDatabase(a.dbHelper)
	verdictDB := databases.NewVerdictDatabase(a.dbHelper)
	notificationDB := databases.NewNotificationDatabase(a.dbHelper)
	auditDB := databases.NewAuditLogDatabase(a.dbHelper)

	if a.Hub == nil {
		a.Hub = services.NewHub()
	}
	notifier := services.NewNotifier(notificationDB, userDB, a.Hub)
	auditor := services.NewAuditor(auditDB)
	tx := databases.NewTransactor(a.client)

	u := User{DB: userDB, RDB: roleDB, Auditor: auditor}
	adm := Admin{UDB: userDB, RDB: roleDB}
	comp := Complaint{DB: complaintDB, CaseDB: caseDB, CCDB: caseComplainantDB, UDB: userDB, Notifier: notifier, Auditor: auditor}
	cs := Case{DB: caseDB, CCDB: caseComplainantDB, UDB: userDB, Notifier: notifier, Auditor: auditor}
	scene := CrimeScene{DB: crimeSceneDB, CaseDB: caseDB, UDB: userDB, Notifier: notifier, Auditor: auditor}
	sus := Suspect{DB: suspectDB, CaseDB: caseDB, UDB: userDB, Notifier: notifier, Auditor: auditor}
	interro := Interrogation{DB: interrogationDB, SDB: suspectDB, CaseDB: caseDB, UDB: userDB, Notifier: notifier, Auditor: auditor}
	dec := Decision{DB: decisionDB, CADB: chiefApprovalDB, SDB: suspectDB, CaseDB: caseDB, TDB: trialDB, UDB: userDB, Notifier: notifier, Auditor: auditor}
	tr := Trial{DB: trialDB, CaseDB: caseDB, UDB: userDB, Notifier: notifier, Auditor: auditor}
	ver := Verdict{DB: verdictDB, TDB: trialDB, CaseDB: caseDB, SDB: suspectDB, UDB: userDB, Tx: tx, Notifier: notifier, Auditor: auditor}
	n := Notification{DB: notificationDB, UDB: userDB}
	aud := Audit{DB: auditDB, UDB: userDB}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/roles", api.Middleware(http.HandlerFunc(u.AssignRolesHandler))).Methods("PUT")

	apiCreate.Handle("/admin/login", http.HandlerFunc(adm.AdminLoginHandler)).Methods("POST")
	apiCreate.Handle("/admin/seed-roles", http.HandlerFunc(adm.SeedRolesHandler)).Methods("POST")

	apiCreate.Handle("/complaint", api.Middleware(http.HandlerFunc(comp.SubmitComplaintHandler))).Methods("POST")
	apiCreate.Handle("/complaints", api.Middleware(http.HandlerFunc(comp.ComplaintsHandler))).Methods("GET")
	apiCreate.Handle("/complaint/{complaint_id}", api.Middleware(http.HandlerFunc(comp.ComplaintByIDHandler))).Methods("GET")
	apiCreate.Handle("/complaint/{complaint_id}/trainee-review", api.Middleware(http.HandlerFunc(comp.TraineeReviewHandler))).Methods("PUT")
	apiCreate.Handle("/complaint/{complaint_id}/correct", api.Middleware(http.HandlerFunc(comp.CorrectComplaintHandler))).Methods("PUT")
	apiCreate.Handle("/complaint/{complaint_id}/officer-review", api.Middleware(http.HandlerFunc(comp.OfficerReviewHandler))).Methods("PUT")

	apiCreate.Handle("/case", api.Middleware(http.HandlerFunc(cs.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(cs.CasesHandler))).Methods("GET")
	apiCreate.Handle("/case/{case_id}", api.Middleware(http.HandlerFunc(cs.CaseByIDHandler))).Methods("GET")
	apiCreate.Handle("/case/{case_id}/assign-detective", api.Middleware(http.HandlerFunc(cs.AssignDetectiveHandler))).Methods("PUT")
	apiCreate.Handle("/case/{case_id}/complainants", api.Middleware(http.HandlerFunc(cs.AddCaseComplainantHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/complainants", api.Middleware(http.HandlerFunc(cs.CaseComplainantsHandler))).Methods("GET")

	apiCreate.Handle("/crime-scene-report", api.Middleware(http.HandlerFunc(scene.CreateCrimeSceneReportHandler))).Methods("POST")
	apiCreate.Handle("/crime-scene-report/{report_id}", api.Middleware(http.HandlerFunc(scene.CrimeSceneReportByIDHandler))).Methods("GET")
	apiCreate.Handle("/crime-scene-report/{report_id}/approve", api.Middleware(http.HandlerFunc(scene.ApproveCrimeSceneReportHandler))).Methods("PUT")
	apiCreate.Handle("/case/{case_id}/crime-scene-report", api.Middleware(http.HandlerFunc(scene.CrimeSceneReportByCaseHandler))).Methods("GET")

	apiCreate.Handle("/case/{case_id}/suspects", api.Middleware(http.HandlerFunc(sus.ProposeSuspectHandler))).Methods("POST")
	apiCreate.Handle("/case/{case_id}/suspects", api.Middleware(http.HandlerFunc(sus.SuspectsByCaseHandler))).Methods("GET")
	apiCreate.Handle("/suspect/{suspect_id}", api.Middleware(http.HandlerFunc(sus.SuspectByIDHandler))).Methods("GET")
	apiCreate.Handle("/suspect/{suspect_id}/review", api.Middleware(http.HandlerFunc(sus.ReviewSuspectHandler))).Methods("PUT")
	apiCreate.Handle("/most-wanted", http.HandlerFunc(sus.MostWantedHandler)).Methods("GET")

	apiCreate.Handle("/suspect/{suspect_id}/interrogation", api.Middleware(http.HandlerFunc(interro.InterrogationBySuspectHandler))).Methods("GET")
	apiCreate.Handle("/interrogation/{interrogation_id}/detective-score", api.Middleware(http.HandlerFunc(interro.DetectiveScoreHandler))).Methods("PUT")
	apiCreate.Handle("/interrogation/{interrogation_id}/supervisor-score", api.Middleware(http.HandlerFunc(interro.SupervisorScoreHandler))).Methods("PUT")
	apiCreate.Handle("/interrogation/{interrogation_id}/notes", api.Middleware(http.HandlerFunc(interro.AddNoteHandler))).Methods("POST")

	apiCreate.Handle("/suspect/{suspect_id}/decision", api.Middleware(http.HandlerFunc(dec.CaptainDecideHandler))).Methods("POST")
	apiCreate.Handle("/decision/{decision_id}", api.Middleware(http.HandlerFunc(dec.DecisionByIDHandler))).Methods("GET")
	apiCreate.Handle("/decision/{decision_id}/chief-review", api.Middleware(http.HandlerFunc(dec.ChiefReviewHandler))).Methods("PUT")

	apiCreate.Handle("/case/{case_id}/refer", api.Middleware(http.HandlerFunc(tr.ReferCaseHandler))).Methods("POST")
	apiCreate.Handle("/trials", api.Middleware(http.HandlerFunc(tr.TrialsHandler))).Methods("GET")
	apiCreate.Handle("/trial/{trial_id}", api.Middleware(http.HandlerFunc(tr.TrialByIDHandler))).Methods("GET")

	apiCreate.Handle("/trial/{trial_id}/verdict", api.Middleware(http.HandlerFunc(ver.RecordVerdictHandler))).Methods("POST")
	apiCreate.Handle("/trial/{trial_id}/verdict", api.Middleware(http.HandlerFunc(ver.VerdictByTrialHandler))).Methods("GET")
	apiCreate.Handle("/verdicts", api.Middleware(http.HandlerFunc(ver.VerdictsHandler))).Methods("GET")

	apiCreate.Handle("/notifications", api.Middleware(http.HandlerFunc(n.NotificationsHandler))).Methods("GET")
	apiCreate.Handle("/notification/{notification_id}/read", api.Middleware(http.HandlerFunc(n.MarkNotificationReadHandler))).Methods("PUT")
	apiCreate.Handle("/audit-logs", api.Middleware(http.HandlerFunc(aud.AuditLogsHandler))).Methods("GET")

	r.HandleFunc("/ws/notifications", a.Hub.ServeWebSocket)

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("criminal-case-api has connected to the database")

	// initialize api router
	a.initializeRoutes()
	return nil

}

// SuspectDB exposes the suspect collection for background jobs
func (a *App) SuspectDB() databases.SuspectDatabase {
	return databases.NewSuspectDatabase(a.dbHelper)
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
