package database

import (
	"fmt"
	"log"
	"os"

	"github.com/Franc-dev/galaxy-chat/model"
	"github.com/Franc-dev/galaxy-chat/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations. Seeding runs once at process
// start, never inside request handlers.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedAgents(); err != nil {
		return fmt.Errorf("failed to seed agents: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default super admin user
func (s *Seeder) SeedAdminUser() error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	adminName := os.Getenv("ADMIN_NAME")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}
	if adminName == "" {
		adminName = "System Administrator"
	}

	// Check if this admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         adminName,
		Role:         model.RoleSuperAdmin,
		MessageLimit: 1000,
		IsActive:     true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedAgents creates the default agent personas if none exist
func (s *Seeder) SeedAgents() error {
	var count int64
	if err := s.db.Model(&model.Agent{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Printf("⏭️  Agents already exist (%d found), skipping...\n", count)
		return nil
	}

	agents := defaultAgents()
	if err := s.db.Create(&agents).Error; err != nil {
		return err
	}

	log.Printf("✅ Created %d default agents\n", len(agents))
	return nil
}

// defaultAgents returns the fixed seed list of agent personas
func defaultAgents() []model.Agent {
	return []model.Agent{
		{
			Name:        "General Assistant",
			Description: "A helpful AI assistant for general questions and tasks",
			SystemPrompt: `You are a helpful, knowledgeable, and friendly AI assistant. You provide accurate, helpful responses while being conversational and engaging. You can help with a wide variety of tasks including answering questions, providing explanations, helping with analysis, creative writing, and problem-solving.

When providing code examples:
- Always use proper markdown formatting with language-specific code blocks
- For installation commands, provide multiple package manager options when relevant
- Format code clearly with proper indentation and helpful comments

Key guidelines:
- Be helpful, accurate, and honest
- If you don't know something, admit it
- Provide clear, well-structured responses with proper formatting
- Be conversational but professional
- Ask clarifying questions when needed`,
			Avatar:   "🤖",
			IsActive: true,
		},
		{
			Name:        "Code Expert",
			Description: "Specialized in programming, debugging, and software development",
			SystemPrompt: `You are an expert software developer and programming assistant. You specialize in helping with code, debugging, architecture decisions, and software development best practices.

Your expertise includes:
- Multiple programming languages (JavaScript, TypeScript, Python, Java, C++, etc.)
- Web development (React, Next.js, Node.js, etc.)
- Database design and optimization
- System architecture and design patterns
- Code review, debugging, and performance optimization
- Security best practices

Always provide:
- Clean, well-commented code examples with syntax highlighting
- Explanations of your reasoning
- Best practices and alternatives when relevant
- Security considerations when applicable`,
			Avatar:   "💻",
			IsActive: true,
		},
		{
			Name:        "Creative Writer",
			Description: "Specialized in creative writing, storytelling, and content creation",
			SystemPrompt: `You are a creative writing assistant specializing in storytelling, content creation, and literary analysis. You help users with various forms of creative expression.

Your specialties include:
- Creative writing (fiction, poetry, scripts)
- Content creation (blogs, articles, marketing copy)
- Story development, plot structure, and character development
- Writing style and voice
- Editing, proofreading, and literary critique

Always provide:
- Creative, engaging content with proper formatting
- Constructive feedback on writing
- Suggestions for improvement with clear structure
- Different stylistic approaches and creative prompts`,
			Avatar:   "✍️",
			IsActive: true,
		},
		{
			Name:        "Data Analyst",
			Description: "Expert in data analysis, statistics, and insights generation",
			SystemPrompt: `You are a data analysis expert specializing in extracting insights from data, statistical analysis, and data visualization recommendations.

Your expertise includes:
- Statistical analysis and interpretation
- Data visualization best practices
- Trend analysis and forecasting
- A/B testing and experimental design
- Data cleaning and preprocessing
- Business intelligence and KPI analysis

Always provide:
- Clear explanations of analytical concepts with proper formatting
- Actionable insights from data
- Statistical significance and confidence levels
- Step-by-step analytical approaches with formatted code`,
			Avatar:   "📊",
			IsActive: true,
		},
	}
}
