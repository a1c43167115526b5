// Package main provides the entrypoint for the SkyRoute mission planner.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyroute/skyroute/internal/config"
	"github.com/skyroute/skyroute/internal/genetic"
	"github.com/skyroute/skyroute/internal/mission"
	"github.com/skyroute/skyroute/internal/orchestrator"
	"github.com/skyroute/skyroute/internal/planner"
	"github.com/skyroute/skyroute/internal/telemetry"
	"github.com/skyroute/skyroute/internal/vrp"
	"github.com/skyroute/skyroute/internal/weather"
	"github.com/skyroute/skyroute/pkg/polyline"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// input is the mission file layout: the mission itself plus an optional
// weather snapshot.
type input struct {
	Mission mission.Mission  `json:"mission"`
	Weather []weather.Sample `json:"weather,omitempty"`
}

// routeOutput is one drone's planned route in the result file.
type routeOutput struct {
	Drone    string               `json:"drone"`
	Polyline string               `json:"polyline"`
	Metrics  mission.RouteMetrics `json:"metrics"`
	Targets  []string             `json:"targets"`
}

type output struct {
	RunID    string                          `json:"runId"`
	Routes   map[string]routeOutput          `json:"routes"`
	Failures map[string]orchestrator.Failure `json:"failures,omitempty"`
	Duration string                          `json:"duration"`
}

func main() {
	const serviceName = "skyroute-planner"

	var (
		configPath  = flag.String("config", "", "path to YAML config (optional)")
		missionPath = flag.String("mission", "", "path to mission JSON (required)")
		outPath     = flag.String("out", "", "path for result JSON (default stdout)")
	)
	flag.Parse()

	log := zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SkyRoute planner")

	if *missionPath == "" {
		log.Fatal().Msg("-mission is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		log = log.Level(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		SampleRatio:    cfg.Telemetry.SampleRatio,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	in, err := readMission(*missionPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *missionPath).Msg("failed to read mission")
	}

	var samples *weather.Set
	if cfg.UseWeather && len(in.Weather) > 0 {
		samples = weather.NewSet(weather.SetConfig{})
		for _, s := range in.Weather {
			samples.Add(s)
		}
		log.Info().Int("samples", samples.Len()).Msg("loaded weather snapshot")
	}

	alg, err := planner.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid algorithm")
	}

	orch := orchestrator.New(orchestrator.Config{
		Options: orchestrator.Options{
			Algorithm:      alg,
			UseGrid:        cfg.UseGrid,
			UseVRP:         cfg.UseVRP,
			UseGenetic:     cfg.UseGenetic,
			UseWeather:     cfg.UseWeather,
			GridResolution: cfg.GridResolution,
			VRPObjective:   vrp.Objective(cfg.VRPObjective),
			Genetic: genetic.Config{
				PopulationSize: cfg.Genetic.PopulationSize,
				Generations:    cfg.Genetic.GenerationCount,
				MutationRate:   cfg.Genetic.MutationRate,
				CrossoverRate:  cfg.Genetic.CrossoverRate,
			},
			Timeout: cfg.PlanTimeout,
			Workers: cfg.Workers,
		},
		Samples: samples,
		Logger:  log,
	})

	result, err := orch.Plan(ctx, &in.Mission)
	if err != nil {
		log.Fatal().Err(err).Msg("planning failed")
	}

	if err := writeResult(*outPath, result); err != nil {
		log.Fatal().Err(err).Msg("failed to write result")
	}

	if len(result.Failures) > 0 {
		log.Warn().Int("failures", len(result.Failures)).Msg("some drones could not be routed")
		os.Exit(2)
	}
}

func readMission(path string) (*input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse mission: %w", err)
	}
	return &in, nil
}

func writeResult(path string, result *orchestrator.Result) error {
	out := output{
		RunID:    result.RunID,
		Routes:   make(map[string]routeOutput, len(result.Routes)),
		Failures: result.Failures,
		Duration: result.Duration.String(),
	}
	for name, route := range result.Routes {
		coords := make([]polyline.Coordinate, len(route.Waypoints))
		targets := make([]string, 0)
		for i, wp := range route.Waypoints {
			coords[i] = polyline.Coordinate{Lat: wp.Lat, Lon: wp.Lon, Alt: wp.Alt}
			if wp.Type == mission.WaypointTarget {
				targets = append(targets, wp.Label)
			}
		}
		out.Routes[name] = routeOutput{
			Drone:    name,
			Polyline: polyline.Encode(coords),
			Metrics:  route.Metrics,
			Targets:  targets,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
