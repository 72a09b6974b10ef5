package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/JadeGeek/Awada/pkg/bot"
	"github.com/JadeGeek/Awada/pkg/cache"
	"github.com/JadeGeek/Awada/pkg/config"
	"github.com/JadeGeek/Awada/pkg/filter"
	"github.com/JadeGeek/Awada/pkg/generate"
	"github.com/JadeGeek/Awada/pkg/nlu"
	"github.com/JadeGeek/Awada/pkg/rules"
	"github.com/JadeGeek/Awada/pkg/store"
	"github.com/JadeGeek/Awada/pkg/surreal"
)

func main() {
	// Load config.yml
	cfg, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load .env for secrets
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		log.Fatal("Missing required environment variable: DISCORD_TOKEN")
	}
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		log.Fatal("Missing required environment variable: OPENAI_API_KEY")
	}

	// Rule tables: malformed or structurally invalid tables must refuse to
	// start rather than run with partial rules.
	snapshot, err := config.LoadSnapshot(cfg.Drama.RulesDir)
	if err != nil {
		log.Fatalf("Failed to load rule tables: %v", err)
	}
	ruleStore, err := rules.NewStore(snapshot)
	if err != nil {
		log.Fatalf("Invalid rule tables: %v", err)
	}
	if _, ok := snapshot.Scenarios[cfg.Drama.DefaultScenario][cfg.Drama.DefaultCharacter]; !ok {
		log.Fatalf("Default scenario/character %q/%q not present in scenario table", cfg.Drama.DefaultScenario, cfg.Drama.DefaultCharacter)
	}

	keywords, err := config.LoadKeywords(cfg.Drama.KeywordsFile)
	if err != nil {
		log.Fatalf("Failed to load keyword list: %v", err)
	}
	contentFilter := filter.Build(keywords)
	log.Printf("Loaded %d filter phrases", len(keywords))

	// NLU service; unreachable at startup is fatal.
	nluURL := os.Getenv("NLU_URL")
	if nluURL == "" {
		nluURL = "http://localhost:5005/model/parse"
	}
	nluClient := nlu.NewClient(nluURL)
	pingCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := nluClient.Ping(pingCtx); err != nil {
		cancel()
		log.Fatalf("Intent classifier unreachable at %s: %v", nluURL, err)
	}
	cancel()

	generator := generate.NewClient(
		openaiKey,
		os.Getenv("OPENAI_BASE_URL"),
		cfg.ModelSettings.Model,
		cfg.ModelSettings.Temperature,
		cfg.ModelSettings.TopP,
	)

	// Persistence: SurrealDB when configured, optionally fronted by Redis;
	// in-memory otherwise.
	var st store.Store = store.NewMemStore()
	if surrealHost := os.Getenv("SURREAL_DB_HOST"); surrealHost != "" {
		surrealUser := os.Getenv("SURREAL_DB_USER")
		surrealPass := os.Getenv("SURREAL_DB_PASS")
		surrealNS := os.Getenv("SURREAL_DB_NAMESPACE")
		surrealDB := os.Getenv("SURREAL_DB_DATABASE")
		if surrealNS == "" {
			surrealNS = "awada"
		}
		if surrealDB == "" {
			surrealDB = "drama"
		}
		if len(surrealHost) > 4 && surrealHost[:5] != "ws://" && surrealHost[:6] != "wss://" {
			surrealHost = "wss://" + surrealHost + "/rpc"
		}

		log.Printf("Connecting to SurrealDB at %s (NS: %s, DB: %s)", surrealHost, surrealNS, surrealDB)
		surrealClient, err := surreal.NewClient(surrealHost, surrealUser, surrealPass, surrealNS, surrealDB)
		if err != nil {
			log.Fatalf("Failed to connect to SurrealDB: %v", err)
		}
		defer surrealClient.Close()

		st, err = store.NewSurrealStore(surrealClient)
		if err != nil {
			log.Fatalf("Failed to initialize SurrealDB store: %v", err)
		}

		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			redisCache, err := cache.NewRedisCache(redisURL, "awada")
			if err != nil {
				log.Fatalf("Failed to connect to Redis: %v", err)
			}
			defer redisCache.Close()
			st = store.NewCachedStore(st, redisCache)
			log.Println("Redis cache enabled")
		}
	} else {
		log.Println("SURREAL_DB_HOST not set, sessions will not survive restarts")
	}

	// Create Discord Session
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		log.Fatalf("Error creating Discord session: %v", err)
	}
	dg.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	messenger := bot.NewDiscordMessenger(dg)
	handler := bot.NewHandler(cfg, ruleStore, contentFilter, nluClient, nluClient, generator, messenger, st)
	if err := handler.RestoreSessions(); err != nil {
		log.Printf("Error restoring sessions: %v", err)
	}

	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author.ID == s.State.User.ID || m.Author.Bot {
			return
		}
		// Drama sessions are one-on-one; ignore guild chatter.
		if m.GuildID != "" {
			return
		}
		handler.HandleMessage(m.Author.ID, m.Content)
	})

	if err := dg.Open(); err != nil {
		log.Fatalf("Error opening connection: %v", err)
	}

	log.Println("Awada is now running. Press CTRL-C to exit.")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	handler.Wait()
	dg.Close()
}
