package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/pludo/internal/domain"
	"github.com/mtlprog/pludo/internal/secret"
)

const (
	agentsTable = "agents"

	// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures.
	uniqueViolation = "23505"
)

// agentColumns is the shared list of columns for agent queries.
var agentColumns = []string{
	"id", "user_id", "name", "brand_name", "website_name", "agent_type",
	"role_description", "services", "faqs", "primary_color", "tone",
	"avatar_url", "subdomain", "office_hours", "knowledge", "api_provider",
	"model", "api_key", "github_repo", "vercel_url", "created_at", "updated_at",
}

// AgentRepository handles database operations for agent records. API keys
// are sealed before they are written and opened when rows are read.
type AgentRepository struct {
	pool   *pgxpool.Pool
	sealer *secret.Sealer
}

// NewAgentRepository creates a new AgentRepository.
func NewAgentRepository(pool *pgxpool.Pool, sealer *secret.Sealer) *AgentRepository {
	return &AgentRepository{pool: pool, sealer: sealer}
}

// scanAgent scans a single row into an Agent struct.
func (r *AgentRepository) scanAgent(row pgx.Row) (*domain.Agent, error) {
	var (
		agent     domain.Agent
		faqs      []byte
		sealedKey string
	)
	err := row.Scan(
		&agent.ID,
		&agent.UserID,
		&agent.Name,
		&agent.BrandName,
		&agent.WebsiteName,
		&agent.AgentType,
		&agent.RoleDescription,
		&agent.Services,
		&faqs,
		&agent.PrimaryColor,
		&agent.Tone,
		&agent.AvatarURL,
		&agent.Subdomain,
		&agent.OfficeHours,
		&agent.Knowledge,
		&agent.APIProvider,
		&agent.Model,
		&sealedKey,
		&agent.RepositoryURL,
		&agent.LiveURL,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("scan agent: %w", err)
	}

	if err := json.Unmarshal(faqs, &agent.FAQs); err != nil {
		return nil, fmt.Errorf("decode faqs for agent %s: %w", agent.ID, err)
	}

	agent.APIKey, err = r.sealer.Open(sealedKey)
	if err != nil {
		return nil, fmt.Errorf("open api key for agent %s: %w", agent.ID, err)
	}

	return &agent, nil
}

// scanAgents scans multiple rows into a slice of Agent structs.
func (r *AgentRepository) scanAgents(rows pgx.Rows) ([]*domain.Agent, error) {
	defer rows.Close()

	agents := []*domain.Agent{}
	for rows.Next() {
		agent, err := r.scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return agents, nil
}

// encodeConfig prepares the JSON and sealed columns of a config.
func (r *AgentRepository) encodeConfig(cfg domain.AgentConfig) (faqs string, services []string, sealedKey string, err error) {
	list := cfg.FAQs
	if list == nil {
		list = []domain.FAQ{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return "", nil, "", fmt.Errorf("encode faqs: %w", err)
	}

	services = cfg.Services
	if services == nil {
		services = []string{}
	}

	sealedKey, err = r.sealer.Seal(cfg.APIKey)
	if err != nil {
		return "", nil, "", fmt.Errorf("seal api key: %w", err)
	}

	return string(raw), services, sealedKey, nil
}

// Create inserts a new agent record, assigning its ID and timestamps.
// Returns ErrSubdomainTaken if another agent already owns the subdomain.
func (r *AgentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	faqs, services, sealedKey, err := r.encodeConfig(agent.AgentConfig)
	if err != nil {
		return err
	}

	agent.ID = uuid.NewString()

	query, args, err := psql.
		Insert(agentsTable).
		Columns(
			"id", "user_id", "name", "brand_name", "website_name", "agent_type",
			"role_description", "services", "faqs", "primary_color", "tone",
			"avatar_url", "subdomain", "office_hours", "knowledge", "api_provider",
			"model", "api_key", "github_repo", "vercel_url",
		).
		Values(
			agent.ID, agent.UserID, agent.Name, agent.BrandName, agent.WebsiteName, agent.AgentType,
			agent.RoleDescription, services, sq.Expr("?::jsonb", faqs), agent.PrimaryColor, agent.Tone,
			agent.AvatarURL, agent.Subdomain, agent.OfficeHours, agent.Knowledge, agent.APIProvider,
			agent.Model, sealedKey, agent.RepositoryURL, agent.LiveURL,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build Create query for agent: %w", err)
	}

	err = r.pool.QueryRow(ctx, query, args...).Scan(&agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSubdomainTaken
		}
		return fmt.Errorf("insert agent: %w", err)
	}

	return nil
}

// GetByID retrieves an agent by ID.
func (r *AgentRepository) GetByID(ctx context.Context, agentID string) (*domain.Agent, error) {
	if !validID(agentID) {
		return nil, domain.ErrAgentNotFound
	}

	query, args, err := psql.
		Select(agentColumns...).
		From(agentsTable).
		Where(sq.Eq{"id": agentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetByID query for agent: %w", err)
	}

	return r.scanAgent(r.pool.QueryRow(ctx, query, args...))
}

// GetBySubdomain retrieves the agent serving a subdomain.
func (r *AgentRepository) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Agent, error) {
	query, args, err := psql.
		Select(agentColumns...).
		From(agentsTable).
		Where(sq.Eq{"subdomain": subdomain}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build GetBySubdomain query for agent: %w", err)
	}

	return r.scanAgent(r.pool.QueryRow(ctx, query, args...))
}

// SubdomainExists reports whether any agent uses the subdomain.
func (r *AgentRepository) SubdomainExists(ctx context.Context, subdomain string) (bool, error) {
	query, args, err := psql.
		Select("1").
		Prefix("SELECT EXISTS (").
		From(agentsTable).
		Where(sq.Eq{"subdomain": subdomain}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build SubdomainExists query: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check subdomain: %w", err)
	}
	return exists, nil
}

// ListByUser returns a user's agents, newest first.
func (r *AgentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Agent, error) {
	query, args, err := psql.
		Select(agentColumns...).
		From(agentsTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ListByUser query for agents: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	return r.scanAgents(rows)
}

// UpdateConfig overwrites the configuration columns of an agent. The
// subdomain and phase result columns are left untouched.
func (r *AgentRepository) UpdateConfig(ctx context.Context, agent *domain.Agent) error {
	if !validID(agent.ID) {
		return domain.ErrAgentNotFound
	}

	faqs, services, sealedKey, err := r.encodeConfig(agent.AgentConfig)
	if err != nil {
		return err
	}

	query, args, err := psql.
		Update(agentsTable).
		Set("name", agent.Name).
		Set("brand_name", agent.BrandName).
		Set("website_name", agent.WebsiteName).
		Set("agent_type", agent.AgentType).
		Set("role_description", agent.RoleDescription).
		Set("services", services).
		Set("faqs", sq.Expr("?::jsonb", faqs)).
		Set("primary_color", agent.PrimaryColor).
		Set("tone", agent.Tone).
		Set("avatar_url", agent.AvatarURL).
		Set("office_hours", agent.OfficeHours).
		Set("knowledge", agent.Knowledge).
		Set("api_provider", agent.APIProvider).
		Set("model", agent.Model).
		Set("api_key", sealedKey).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": agent.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build UpdateConfig query for agent %s: %w", agent.ID, err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&agent.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAgentNotFound
		}
		return fmt.Errorf("update agent config: %w", err)
	}

	return nil
}

// SetRepositoryURL records the upload phase result.
func (r *AgentRepository) SetRepositoryURL(ctx context.Context, agentID, repositoryURL string) error {
	return r.setColumn(ctx, agentID, "github_repo", repositoryURL)
}

// SetLiveURL records the deploy phase result.
func (r *AgentRepository) SetLiveURL(ctx context.Context, agentID, liveURL string) error {
	return r.setColumn(ctx, agentID, "vercel_url", liveURL)
}

func (r *AgentRepository) setColumn(ctx context.Context, agentID, column, value string) error {
	if !validID(agentID) {
		return domain.ErrAgentNotFound
	}

	query, args, err := psql.
		Update(agentsTable).
		Set(column, value).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": agentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update query for agent %s %s: %w", agentID, column, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update agent %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}

	return nil
}

// Delete removes an agent record.
func (r *AgentRepository) Delete(ctx context.Context, agentID string) error {
	if !validID(agentID) {
		return domain.ErrAgentNotFound
	}

	query, args, err := psql.
		Delete(agentsTable).
		Where(sq.Eq{"id": agentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build Delete query for agent %s: %w", agentID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}

	return nil
}

// validID rejects ids that cannot be a stored UUID, so they read as not found
// instead of a database cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
