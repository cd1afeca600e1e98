package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/internal/health"
	"github.com/satriahrh/marcus/internal/reminder"
)

func (s *AssistantService) healthTips(context.Context, *conversation, string) (string, error) {
	return strings.Join(health.Tips, " "), nil
}

func (s *AssistantService) fitnessRecommendations(context.Context, *conversation, string) (string, error) {
	return strings.Join(health.FitnessRecommendations, " "), nil
}

func (s *AssistantService) calculateBMI(ctx context.Context, conv *conversation, _ string) (string, error) {
	height, err := s.ask(ctx, conv, "Enter your height in meters: ")
	if err != nil {
		return "", err
	}
	weight, err := s.ask(ctx, conv, "Enter your weight in kilograms: ")
	if err != nil {
		return "", err
	}
	return health.BMIReply(height, weight), nil
}

func (s *AssistantService) trackCalories(ctx context.Context, conv *conversation, _ string) (string, error) {
	raw, err := s.ask(ctx, conv, "Enter the number of calories consumed: ")
	if err != nil {
		return "", err
	}
	calories, err := health.ParseCalories(raw)
	if err != nil {
		return health.InvalidCaloriesReply, nil
	}

	activity, err := s.ask(ctx, conv, "Enter the type of activity performed: ")
	if err != nil {
		return "", err
	}
	return health.CaloriesReply(calories, activity), nil
}

// medicationReminder schedules a daily reminder spoken on the same channel
func (s *AssistantService) medicationReminder(ctx context.Context, conv *conversation, _ string) (string, error) {
	medication, err := s.ask(ctx, conv, "Enter the name of the medication: ")
	if err != nil {
		return "", err
	}
	clock, err := s.ask(ctx, conv, "Enter the time to set the reminder (HH:MM): ")
	if err != nil {
		return "", err
	}
	medication, clock = strings.TrimSpace(medication), strings.TrimSpace(clock)

	notify := func(label string) {
		if err := s.speak(ctx, conv, fmt.Sprintf("Reminder: it is time to take %s.", label)); err != nil {
			s.logger.Warn("Failed to deliver reminder", zap.String("sessionID", conv.sess.ID), zap.Error(err))
		}
	}
	if err := s.deps.Reminders.Add(conv.sess.ID, medication, clock, notify); err != nil {
		if errors.Is(err, reminder.ErrInvalidClock) {
			return "Invalid input. Please enter the time as HH:MM.", nil
		}
		s.logger.Error("Failed to schedule reminder", zap.Error(err))
		return fmt.Sprintf("Error setting reminder: %v", err), nil
	}
	return fmt.Sprintf("Reminder set for %s at %s.", medication, clock), nil
}

func (s *AssistantService) symptomsAnalysis(ctx context.Context, conv *conversation, _ string) (string, error) {
	symptoms, err := s.ask(ctx, conv, "Enter the symptoms you are experiencing: ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Analyzing symptoms: %s.", symptoms), nil
}

func (s *AssistantService) scheduleAppointment(ctx context.Context, conv *conversation, _ string) (string, error) {
	appointment, err := s.ask(ctx, conv, "Enter the details of the medical appointment: ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Medical appointment scheduled: %s.", appointment), nil
}
