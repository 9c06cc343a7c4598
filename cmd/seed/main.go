package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ikkim/budongsan-crm/config"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	"github.com/ikkim/budongsan-crm/internal/db"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	actorEmail string
	assumeYes  bool
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "crm-seed",
	Short: "XLSX 파일로 고객/매물 일괄 등록",
	Long: `기존 장부(XLSX)의 고객과 매물을 CRM 으로 옮긴다.
등록은 --email 로 지정한 직원 계정 이름으로 수행되며 해당 회사에 귀속된다.`,
	SilenceUsage: true,
}

var customersCmd = &cobra.Command{
	Use:   "customers <xlsx_file_path>",
	Short: "고객 일괄 등록",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readCustomersFromXLSX(args[0])
		if err != nil {
			return err
		}
		return runImport(len(rows), func(conn *gorm.DB, actor *model.User) (int, error) {
			svc := service.NewCustomerService(
				repository.NewCustomerRepository(conn),
				repository.NewActivityRepository(conn),
			)
			created := 0
			for _, row := range rows {
				if _, err := svc.CreateCustomer(actor, row.input); err != nil {
					fmt.Printf("  row %d skipped: %v\n", row.line, err)
					continue
				}
				created++
			}
			return created, nil
		})
	},
}

var propertiesCmd = &cobra.Command{
	Use:   "properties <xlsx_file_path>",
	Short: "매물 일괄 등록",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := readPropertiesFromXLSX(args[0])
		if err != nil {
			return err
		}
		return runImport(len(rows), func(conn *gorm.DB, actor *model.User) (int, error) {
			svc := service.NewPropertyService(
				repository.NewPropertyRepository(conn),
				repository.NewCustomerRepository(conn),
				repository.NewContractRepository(conn),
				repository.NewActivityRepository(conn),
				nil,
			)
			created := 0
			for _, row := range rows {
				if _, err := svc.CreateProperty(actor, row.input); err != nil {
					fmt.Printf("  row %d skipped: %v\n", row.line, err)
					continue
				}
				created++
			}
			return created, nil
		})
	},
}

// runImport 설정/DB 를 준비하고 확인을 받은 뒤 import 를 실행한다
func runImport(total int, importFn func(conn *gorm.DB, actor *model.User) (int, error)) error {
	fmt.Printf("Total rows to import: %d\n", total)
	if total == 0 || dryRun {
		fmt.Println("Nothing imported (dry run or empty sheet).")
		return nil
	}

	if !assumeYes && !confirm("Do you want to proceed with the import? (yes/no): ") {
		fmt.Println("Import cancelled.")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Initialize(logger.Config{Level: "warn", Format: "console", EnableColor: true})

	if err := db.Initialize(&cfg.Database); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	actor, err := repository.NewUserRepository(db.GetDB()).FindByEmail(actorEmail)
	if err != nil {
		return fmt.Errorf("actor %s not found: %w", actorEmail, err)
	}
	if actor.Level < model.LevelStaff {
		return fmt.Errorf("actor %s must be staff or above", actorEmail)
	}

	created, err := importFn(db.GetDB(), actor)
	if err != nil {
		return err
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Imported: %d, skipped: %d\n", created, total-created)
	return nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorEmail, "email", "", "등록자(직원 이상) 이메일")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "확인 없이 진행")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "파일만 검사하고 저장하지 않음")
	_ = rootCmd.MarkPersistentFlagRequired("email")

	rootCmd.AddCommand(customersCmd)
	rootCmd.AddCommand(propertiesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
