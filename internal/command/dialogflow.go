// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"

	df "cloud.google.com/go/dialogflow/apiv2"
	"github.com/urfave/cli/v3"

	"github.com/staranto/gcpctl/internal/meta"
	dfsample "github.com/staranto/gcpctl/internal/samples/dialogflow"
)

var (
	openSessions           = FromFactory(dfsample.NewSessionsClient)
	openIntents            = FromFactory(dfsample.NewIntentsClient)
	openEntityTypes        = FromFactory(dfsample.NewEntityTypesClient)
	openContexts           = FromFactory(dfsample.NewContextsClient)
	openSessionEntityTypes = FromFactory(dfsample.NewSessionEntityTypesClient)
)

func sessionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "session", Usage: "session ID. A new UUID when unset"},
		&cli.StringFlag{
			Name:    "language",
			Usage:   "language code of the query",
			Value:   dfsample.DefaultLanguage,
			Sources: cli.NewValueSourceChain(configSources("dialogflow", "language")...),
		},
	}
}

func session(cmd *cli.Command) string {
	if s := cmd.String("session"); s != "" {
		return s
	}
	return dfsample.NewSessionID()
}

func detectAudioSample(name, usage string, fn func(context.Context, io.Writer, *df.SessionsClient, string, string, string, string) error) Sample {
	return Sample{
		Name:  name,
		Usage: usage,
		Args:  []string{"file"},
		Flags: sessionFlags(),
		Run: WithProject(openSessions, func(ctx context.Context, w io.Writer, c *df.SessionsClient, project string, cmd *cli.Command) error {
			return fn(ctx, w, c, project, session(cmd), cmd.String("language"), arg(cmd, 0))
		}),
	}
}

// DialogflowCommandBuilder constructs the "dialogflow" command group.
func DialogflowCommandBuilder(meta meta.Meta) *cli.Command {
	return (&GroupBuilder{
		Name:  "dialogflow",
		Usage: "Dialogflow ES samples",
		Meta:  meta,
		Samples: []Sample{
			// Detect intent.
			{
				Name:  "detect-intent-texts",
				Usage: "detect the intent of each text",
				Args:  []string{"text..."},
				Flags: sessionFlags(),
				Run: WithProject(openSessions, func(ctx context.Context, w io.Writer, c *df.SessionsClient, project string, cmd *cli.Command) error {
					return dfsample.DetectIntentTexts(ctx, w, c, project, session(cmd), cmd.String("language"), rest(cmd, 0))
				}),
			},
			detectAudioSample("detect-intent-audio", "detect the intent of a LINEAR16 audio file", dfsample.DetectIntentAudio),
			detectAudioSample("detect-intent-stream", "stream a LINEAR16 audio file and detect its intent", dfsample.DetectIntentStream),

			// Intents.
			List("list-intents", "list the agent's intents", nil, nil,
				ListWithProject(openIntents, func(ctx context.Context, c *df.IntentsClient, project string, _ *cli.Command) ([]*dfsample.Intent, error) {
					return dfsample.ListIntents(ctx, c, project)
				})),
			{
				Name:  "create-intent",
				Usage: "create an intent",
				Args:  []string{"display-name"},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "training-phrase", Usage: "training phrase, repeatable"},
					&cli.StringSliceFlag{Name: "message", Usage: "response text, repeatable"},
				},
				Run: WithProject(openIntents, func(ctx context.Context, w io.Writer, c *df.IntentsClient, project string, cmd *cli.Command) error {
					return dfsample.CreateIntent(ctx, w, c, project, arg(cmd, 0), cmd.StringSlice("training-phrase"), cmd.StringSlice("message"))
				}),
			},
			{
				Name:  "delete-intent",
				Usage: "delete an intent",
				Args:  []string{"id"},
				Run: WithProject(openIntents, func(ctx context.Context, w io.Writer, c *df.IntentsClient, project string, cmd *cli.Command) error {
					return dfsample.DeleteIntent(ctx, w, c, project, arg(cmd, 0))
				}),
			},

			// Entity types and entities.
			List("list-entity-types", "list the agent's entity types", nil, nil,
				ListWithProject(openEntityTypes, func(ctx context.Context, c *df.EntityTypesClient, project string, _ *cli.Command) ([]*dfsample.EntityType, error) {
					return dfsample.ListEntityTypes(ctx, c, project)
				})),
			{
				Name:  "create-entity-type",
				Usage: "create an entity type",
				Args:  []string{"display-name"},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Usage: "map or list", Value: "map"},
				},
				Run: WithProject(openEntityTypes, func(ctx context.Context, w io.Writer, c *df.EntityTypesClient, project string, cmd *cli.Command) error {
					kind, err := dfsample.ParseKind(cmd.String("kind"))
					if err != nil {
						return err
					}
					return dfsample.CreateEntityType(ctx, w, c, project, arg(cmd, 0), kind)
				}),
			},
			{
				Name:  "delete-entity-type",
				Usage: "delete an entity type",
				Args:  []string{"id"},
				Run: WithProject(openEntityTypes, func(ctx context.Context, w io.Writer, c *df.EntityTypesClient, project string, cmd *cli.Command) error {
					return dfsample.DeleteEntityType(ctx, w, c, project, arg(cmd, 0))
				}),
			},
			List("list-entities", "list the entities of an entity type", []string{"entity-type-id"}, nil,
				ListWithProject(openEntityTypes, func(ctx context.Context, c *df.EntityTypesClient, project string, cmd *cli.Command) ([]*dfsample.Entity, error) {
					return dfsample.ListEntities(ctx, c, project, arg(cmd, 0))
				})),
			{
				Name:  "create-entity",
				Usage: "add an entity and its synonyms to an entity type",
				Args:  []string{"entity-type-id", "value", "[synonyms...]"},
				Run: WithProject(openEntityTypes, func(ctx context.Context, w io.Writer, c *df.EntityTypesClient, project string, cmd *cli.Command) error {
					return dfsample.CreateEntity(ctx, w, c, project, arg(cmd, 0), arg(cmd, 1), rest(cmd, 2))
				}),
			},
			{
				Name:  "delete-entity",
				Usage: "remove an entity from an entity type",
				Args:  []string{"entity-type-id", "value"},
				Run: WithProject(openEntityTypes, func(ctx context.Context, w io.Writer, c *df.EntityTypesClient, project string, cmd *cli.Command) error {
					return dfsample.DeleteEntity(ctx, w, c, project, arg(cmd, 0), arg(cmd, 1))
				}),
			},

			// Contexts.
			List("list-contexts", "list a session's contexts", []string{"session"}, nil,
				ListWithProject(openContexts, func(ctx context.Context, c *df.ContextsClient, project string, cmd *cli.Command) ([]*dfsample.Context, error) {
					return dfsample.ListContexts(ctx, c, project, arg(cmd, 0))
				})),
			{
				Name:  "create-context",
				Usage: "create a context in a session",
				Args:  []string{"session", "context"},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "lifespan", Usage: "number of queries the context stays active", Value: 1},
				},
				Run: WithProject(openContexts, func(ctx context.Context, w io.Writer, c *df.ContextsClient, project string, cmd *cli.Command) error {
					return dfsample.CreateContext(ctx, w, c, project, arg(cmd, 0), arg(cmd, 1), int32(cmd.Int("lifespan"))) //nolint:gosec
				}),
			},
			{
				Name:  "delete-context",
				Usage: "delete a context from a session",
				Args:  []string{"session", "context"},
				Run: WithProject(openContexts, func(ctx context.Context, w io.Writer, c *df.ContextsClient, project string, cmd *cli.Command) error {
					return dfsample.DeleteContext(ctx, w, c, project, arg(cmd, 0), arg(cmd, 1))
				}),
			},

			// Session entity types.
			List("list-session-entity-types", "list a session's entity types", []string{"session"}, nil,
				ListWithProject(openSessionEntityTypes, func(ctx context.Context, c *df.SessionEntityTypesClient, project string, cmd *cli.Command) ([]*dfsample.SessionEntityType, error) {
					return dfsample.ListSessionEntityTypes(ctx, c, project, arg(cmd, 0))
				})),
			{
				Name:  "create-session-entity-type",
				Usage: "override an entity type for one session",
				Args:  []string{"session", "entity-type-display-name", "values..."},
				Run: WithProject(openSessionEntityTypes, func(ctx context.Context, w io.Writer, c *df.SessionEntityTypesClient, project string, cmd *cli.Command) error {
					return dfsample.CreateSessionEntityType(ctx, w, c, project, arg(cmd, 0), arg(cmd, 1), rest(cmd, 2))
				}),
			},
			{
				Name:  "delete-session-entity-type",
				Usage: "drop a session's entity type override",
				Args:  []string{"session", "entity-type-display-name"},
				Run: WithProject(openSessionEntityTypes, func(ctx context.Context, w io.Writer, c *df.SessionEntityTypesClient, project string, cmd *cli.Command) error {
					return dfsample.DeleteSessionEntityType(ctx, w, c, project, arg(cmd, 0), arg(cmd, 1))
				}),
			},
		},
	}).Build()
}
