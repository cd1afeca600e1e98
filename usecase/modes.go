package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/router"
)

// modeAction handles a command inside a mode. When leave is set, a match
// returns control to the global table.
type modeAction struct {
	run   func(ctx context.Context, conv *conversation, command string) error
	leave bool
}

type modeTable = router.Table[modeAction]

// says builds a leaving mode route that speaks a fixed acknowledgement
func (s *AssistantService) says(trigger, text string) router.Route[modeAction] {
	return router.Route[modeAction]{
		Trigger: trigger,
		Action: modeAction{
			run: func(ctx context.Context, conv *conversation, _ string) error {
				return s.speak(ctx, conv, text)
			},
			leave: true,
		},
	}
}

// does builds a leaving mode route from a reply handler
func (s *AssistantService) does(trigger string, fn func(ctx context.Context, conv *conversation, command string) (string, error)) router.Route[modeAction] {
	return router.Route[modeAction]{
		Trigger: trigger,
		Action: modeAction{
			run: func(ctx context.Context, conv *conversation, command string) error {
				text, err := fn(ctx, conv, command)
				if err != nil {
					return err
				}
				return s.speak(ctx, conv, text)
			},
			leave: true,
		},
	}
}

func (s *AssistantService) erpTable() *modeTable {
	return router.New(modeAction{},
		s.says("manage employee records", "Managing employee records."),
		s.says("handle recruitment", "Handling recruitment."),
		s.says("manage performance reviews", "Managing performance reviews."),
		s.says("track attendance", "Tracking attendance."),
		s.says("manage financial records", "Managing financial records."),
		s.says("generate financial reports", "Generating financial reports."),
		s.says("track expenses", "Tracking expenses."),
		s.says("create budgets", "Creating budgets."),
		s.says("manage customer data", "Managing customer data."),
		s.says("track customer interactions", "Tracking customer interactions."),
		s.says("handle customer support", "Handling customer support."),
		s.says("manage projects", "Managing projects."),
		s.says("assign tasks", "Assigning tasks."),
		s.says("set deadlines", "Setting deadlines."),
		s.says("track milestones", "Tracking milestones."),
		s.says("manage supply chain", "Managing supply chain."),
		s.says("track shipments", "Tracking shipments."),
		s.says("manage vendors", "Managing vendors."),
		s.says("perform business analytics", "Performing business analytics."),
		s.says("generate dashboards", "Generating dashboards."),
		s.says("predict trends", "Predicting trends."),
		s.says("manage documents", "Managing documents."),
		s.says("track approvals", "Tracking approvals."),
		s.says("archive records", "Archiving records."),
		s.says("handle compliance", "Handling compliance."),
	)
}

func (s *AssistantService) healthcareTable() *modeTable {
	return router.New(modeAction{},
		s.does("provide health tips", s.healthTips),
		s.does("calculate bmi", s.calculateBMI),
		s.does("track calories", s.trackCalories),
		s.does("set medication reminders", s.medicationReminder),
		s.does("provide symptoms analysis", s.symptomsAnalysis),
		s.does("schedule medical appointments", s.scheduleAppointment),
		s.does("give fitness recommendations", s.fitnessRecommendations),
	)
}

func (s *AssistantService) fintechTable() *modeTable {
	return router.New(modeAction{},
		s.does("provide stock updates", s.stockUpdate),
		s.says("track investments", "Tracking investments."),
		s.says("manage budgets", "Managing budgets."),
		s.says("generate financial reports", "Generating financial reports."),
		s.says("provide financial advice", "Providing financial advice."),
		s.says("track expenses", "Tracking expenses."),
	)
}

func (s *AssistantService) personalTable() *modeTable {
	return router.New(modeAction{},
		s.says("manage calendar", "Managing calendar."),
		s.says("set reminders", "Setting reminders."),
		s.says("send email", "Sending email."),
		s.says("play music", "Playing music."),
		s.says("manage to-do list", "Managing to-do list."),
		s.says("track habits", "Tracking habits."),
	)
}

// startMode speaks the mode banner and runs the mode loop
func (s *AssistantService) startMode(mode entities.Mode, banner string) commandHandler {
	return func(ctx context.Context, conv *conversation, _ string) (bool, error) {
		if err := s.speak(ctx, conv, banner); err != nil {
			return false, err
		}
		return false, s.runMode(ctx, conv, mode)
	}
}

// runMode listens for commands of one mode. Unmatched input is ignored.
func (s *AssistantService) runMode(ctx context.Context, conv *conversation, mode entities.Mode) error {
	table := s.modes[mode]
	conv.sess.EnterMode(mode)
	defer conv.sess.LeaveMode()

	logger := s.logger.With(zap.String("sessionID", conv.sess.ID), zap.String("mode", string(mode)))
	logger.Debug("Entered mode")

	for {
		command, err := s.listen(ctx, conv)
		if err != nil {
			return err
		}
		if command == "" {
			continue
		}

		route, ok := table.Match(command)
		if !ok {
			logger.Debug("Command not handled in mode", zap.String("command", command))
			continue
		}
		if err := route.Action.run(ctx, conv, command); err != nil {
			return err
		}
		if route.Action.leave {
			logger.Debug("Leaving mode", zap.String("trigger", route.Trigger))
			return nil
		}
	}
}

// startERP runs onboarding the first time ERP is started in a session
func (s *AssistantService) startERP(ctx context.Context, conv *conversation, _ string) (bool, error) {
	if conv.sess.ERPUsed {
		if err := s.speak(ctx, conv, "ERP system is already in use. What would you like to do next?"); err != nil {
			return false, err
		}
	} else {
		if err := s.loadOrCollectProfile(ctx, conv); err != nil {
			return false, err
		}
		if err := s.speak(ctx, conv, "Thank you for providing the details. The ERP system is now started. What would you like to do next?"); err != nil {
			return false, err
		}
		conv.sess.MarkERPUsed()
	}
	return false, s.runMode(ctx, conv, entities.ModeERP)
}

// loadOrCollectProfile returns the stored business profile, asking for
// every field and saving the answers when none exists yet
func (s *AssistantService) loadOrCollectProfile(ctx context.Context, conv *conversation) error {
	profile, err := s.deps.Profiles.Load(ctx)
	if err == nil {
		s.logger.Debug("Business profile found", zap.String("name", profile.Name))
		return nil
	}
	if !errors.Is(err, repositories.ErrProfileNotFound) {
		s.logger.Error("Failed to load business profile", zap.Error(err))
		return s.speak(ctx, conv, fmt.Sprintf("Error loading business details: %v", err))
	}

	if err := s.speak(ctx, conv, "Starting ERP system. This is your first time using the ERP system. Please provide the following details about your business."); err != nil {
		return err
	}

	profile = &entities.BusinessProfile{}
	for _, q := range entities.ProfileQuestions {
		answer, err := s.ask(ctx, conv, q.Prompt)
		if err != nil {
			return err
		}
		q.Set(profile, answer)
	}

	if err := s.deps.Profiles.Save(ctx, profile); err != nil {
		s.logger.Error("Failed to save business profile", zap.Error(err))
		return s.speak(ctx, conv, fmt.Sprintf("Error saving business details: %v", err))
	}
	return nil
}
