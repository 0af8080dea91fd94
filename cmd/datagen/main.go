// Synthetic data generator for LuminaSAR demos.
//
// Usage:
//   go run cmd/datagen/main.go -db ./luminasar.db
//
// This tool seeds:
//  1. Customers with KYC-style profiles
//  2. Transaction patterns shaped after common laundering typologies
//  3. SAR cases ready for narrative generation
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yash-7575/luminasar/internal/domain"
	"github.com/yash-7575/luminasar/internal/repository"
)

var firstNames = []string{
	"Rajesh", "Priya", "Amit", "Sunita", "Vikram", "Ananya", "Arjun", "Deepa",
	"Rahul", "Kavita", "Sanjay", "Meera", "Rohit", "Neha", "Suresh",
}

var lastNames = []string{
	"Sharma", "Patel", "Mehta", "Gupta", "Singh", "Reddy", "Joshi", "Desai",
	"Kumar", "Verma", "Chowdhury", "Nair", "Pandey", "Aggarwal", "Shah",
}

var occupations = []string{
	"Business Owner", "Software Engineer", "Import-Export Dealer",
	"Real Estate Agent", "Jeweler", "Restaurant Owner", "Textile Trader",
	"Pharmaceutical Distributor", "Retired Government Official",
	"Self-Employed Consultant",
}

var bankPrefixes = []string{"SBI", "HDFC", "ICICI", "AXIS"}

var transactionTypes = []string{"wire_transfer", "cash_deposit", "rtgs", "neft", "upi"}

var statedIncomes = []float64{300000, 500000, 800000, 1200000, 2000000, 5000000}

// scenario shapes a batch of transactions after one laundering typology.
type scenario struct {
	typology     string
	typologies   []string
	minAmount    float64
	maxAmount    float64
	minTxns      int
	maxTxns      int
	timeSpanDays int
}

var scenarios = []scenario{
	// Amounts sit just below the 50,000 CTR threshold.
	{"structuring", []string{"structuring"}, 42000, 49900, 15, 30, 14},
	// Rapid movement through many accounts in a short window.
	{"layering", []string{"layering"}, 100000, 500000, 20, 40, 5},
	// Many small deposits from scattered sources.
	{"smurfing", []string{"smurfing"}, 5000, 30000, 30, 60, 10},
	// Few large transfers dressed as business income.
	{"integration", []string{"integration"}, 500000, 5000000, 5, 15, 30},
	{"structuring", []string{"structuring", "layering"}, 42000, 49900, 15, 30, 14},
}

func main() {
	dbPath := flag.String("db", "./luminasar.db", "SQLite database path")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	fmt.Println("LuminaSAR - Generating Synthetic Data")
	fmt.Println(strings.Repeat("=", 50))

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: *dbPath,
	})
	if err != nil {
		fmt.Printf("ERROR: failed to open repository: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	var caseIDs []string
	totalTxns := 0

	for _, sc := range scenarios {
		customer := generateCustomer(rng)
		if err := repo.SaveCustomer(ctx, customer); err != nil {
			fmt.Printf("ERROR: failed to save customer: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nCustomer: %s (%s)\n", customer.Name, customer.AccountNumber)

		txns := generateTransactions(rng, customer.ID, sc)
		for i := range txns {
			if err := repo.SaveTransaction(ctx, &txns[i]); err != nil {
				fmt.Printf("ERROR: failed to save transaction: %v\n", err)
				os.Exit(1)
			}
		}
		totalTxns += len(txns)
		fmt.Printf("   %d transactions (%s)\n", len(txns), sc.typology)

		sarCase := &domain.SARCase{
			ID:         uuid.New().String(),
			CustomerID: customer.ID,
			Status:     domain.CaseStatusPending,
			Typologies: sc.typologies,
		}
		if err := repo.SaveCase(ctx, sarCase); err != nil {
			fmt.Printf("ERROR: failed to save case: %v\n", err)
			os.Exit(1)
		}
		caseIDs = append(caseIDs, sarCase.ID)
		fmt.Printf("   Case: %s\n", sarCase.ID[:8])
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 50))
	fmt.Println("Data generation complete!")
	fmt.Printf("   Customers:    %d\n", len(scenarios))
	fmt.Printf("   Transactions: %d\n", totalTxns)
	fmt.Printf("   SAR Cases:    %d\n", len(caseIDs))
	fmt.Println("\nCase IDs for testing:")
	for _, id := range caseIDs {
		fmt.Printf("   %s\n", id)
	}
}

func generateAccountNumber(rng *rand.Rand) string {
	prefix := bankPrefixes[rng.Intn(len(bankPrefixes))]
	return fmt.Sprintf("%s%09d", prefix, 100000000+rng.Intn(900000000))
}

func generateCustomer(rng *rand.Rand) *domain.Customer {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	since := time.Now().AddDate(0, 0, -(365 + rng.Intn(3285)))

	return &domain.Customer{
		ID:            uuid.New().String(),
		Name:          first + " " + last,
		AccountNumber: generateAccountNumber(rng),
		Occupation:    occupations[rng.Intn(len(occupations))],
		StatedIncome:  statedIncomes[rng.Intn(len(statedIncomes))],
		CustomerSince: &since,
	}
}

func generateTransactions(rng *rand.Rand, customerID string, sc scenario) []domain.Transaction {
	count := sc.minTxns + rng.Intn(sc.maxTxns-sc.minTxns+1)
	baseDate := time.Now().UTC().AddDate(0, 0, -(1 + rng.Intn(30)))

	externalAccounts := make([]string, 3+rng.Intn(13))
	for i := range externalAccounts {
		externalAccounts[i] = generateAccountNumber(rng)
	}

	txns := make([]domain.Transaction, 0, count)
	for i := 0; i < count; i++ {
		amount := sc.minAmount + rng.Float64()*(sc.maxAmount-sc.minAmount)
		date := baseDate.Add(-time.Duration(rng.Intn(sc.timeSpanDays*24*60)) * time.Minute)

		// 60% inbound
		source := "SELF"
		destination := externalAccounts[rng.Intn(len(externalAccounts))]
		if rng.Float64() < 0.6 {
			source, destination = destination, "SELF"
		}

		txns = append(txns, domain.Transaction{
			ID:                 uuid.New().String(),
			CustomerID:         customerID,
			Amount:             float64(int(amount*100)) / 100,
			Timestamp:          date,
			SourceAccount:      source,
			DestinationAccount: destination,
			Type:               transactionTypes[rng.Intn(len(transactionTypes))],
		})
	}

	return txns
}
