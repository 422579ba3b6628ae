package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/dirk.krummacker/contact-manager/pkg/model"
)

var benchSizes []int

// benchCmd measures the average latency of POST, PUT, GET and DELETE requests
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure the average request latency in microseconds",
	Long: `Create the given number of contacts, then update, read and delete each of them in
random order. The table shows the average latency per request in microseconds.

The service should run with GIN_LOGGING=OFF to keep logging out of the numbers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmark(cmd.Context(), benchSizes)
	},
}

func init() {
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{1000, 5000, 10000, 50000, 100000}, "number of contacts per run")
}

func runBenchmark(ctx context.Context, sizes []int) error {
	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET    DELETE ")
	fmt.Println("---------------------------------------------------")
	birthDate := time.Date(27, time.November, 9, 0, 0, 0, 0, time.UTC)
	template := model.Contact{
		Name:        "Marcus Antonius",
		MobilePhone: "+39 999 777 555",
		BirthDate:   &birthDate,
	}
	for _, loops := range sizes {
		if loops < 1 {
			continue
		}
		fmt.Printf("%10d", loops)

		// POST requests
		ids := make([]int64, 0, loops)
		var duration time.Duration
		for i := 0; i < loops; i++ {
			before := time.Now()
			created, err := api.Create(ctx, template)
			if err != nil {
				return err
			}
			duration += time.Since(before)
			ids = append(ids, created.Id)
		}
		printAverage(duration, loops)

		// PUT requests
		err := callInLoop(ids, func(id int64) error {
			contact := template
			contact.Id = id
			_, err := api.Update(ctx, contact)
			return err
		})
		if err != nil {
			return err
		}

		// GET requests
		err = callInLoop(ids, func(id int64) error {
			_, err := api.Get(ctx, id)
			return err
		})
		if err != nil {
			return err
		}

		// DELETE requests
		err = callInLoop(ids, func(id int64) error {
			return api.Delete(ctx, id)
		})
		if err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

// callInLoop calls f once for every id in random order and prints the average duration.
func callInLoop(ids []int64, f func(id int64) error) error {
	shuffled := make([]int64, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration time.Duration
	for _, id := range shuffled {
		before := time.Now()
		if err := f(id); err != nil {
			return err
		}
		duration += time.Since(before)
	}
	printAverage(duration, len(ids))
	return nil
}

func printAverage(total time.Duration, n int) {
	fmt.Printf("%10d", total.Microseconds()/int64(n))
}
