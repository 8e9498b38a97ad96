package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/licitai/internal/domain/registry"
	"github.com/bryanwahyu/licitai/internal/infra/registry/sri"
	"github.com/bryanwahyu/licitai/internal/middleware"
)

func main() {
	var (
		ruc     string
		objeto  string
		razon   string
		baseURL string
		timeout time.Duration
	)

	root := &cobra.Command{
		Use:          "ruccheck",
		Short:        "Verifica un RUC contra el SRI y las reglas de coherencia",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ruc = strings.TrimSpace(ruc)
			objeto = strings.TrimSpace(objeto)
			razon = strings.TrimSpace(razon)
			if err := middleware.ValidateRUC(ruc); err != nil {
				return err
			}
			if objeto == "" {
				return fmt.Errorf("--objeto is required")
			}
			return runCheck(cmd.Context(), ruc, objeto, razon, baseURL, timeout)
		},
	}

	root.Flags().StringVar(&ruc, "ruc", "", "RUC de 13 dígitos")
	root.Flags().StringVar(&objeto, "objeto", "", "Objeto del contrato/proyecto")
	root.Flags().StringVar(&razon, "razon", "", "Razón social digitada (opcional)")
	root.Flags().StringVar(&baseURL, "sri-url", "", "URL del servicio SRI (opcional)")
	root.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "Timeout de la consulta")
	_ = root.MarkFlagRequired("ruc")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCheck(ctx context.Context, ruc, objeto, razon, baseURL string, timeout time.Duration) error {
	client := sri.New(baseURL, timeout)

	tp, err := client.Lookup(ctx, ruc)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			fmt.Printf("RUC %s: NO EXISTE en SRI o sin datos\n", ruc)
			os.Exit(1)
		}
		return fmt.Errorf("consulta SRI: %w", err)
	}

	fmt.Println("=== Datos SRI ===")
	fmt.Printf("RUC: %s\n", ruc)
	fmt.Printf("Razón social (SRI): %s\n", tp.RazonSocial)
	fmt.Printf("Actividad principal: %s\n", tp.Actividad)
	fmt.Printf("Estado: %s\n", tp.Estado)
	if tp.Fantasma {
		fmt.Println("ALERTA: contribuyente fantasma según SRI")
	}
	if tp.TransaccionesInex {
		fmt.Println("ALERTA: transacciones inexistentes según SRI")
	}
	if razon != "" {
		sim := fuzzy.TokenSetRatio(strings.ToLower(razon), strings.ToLower(tp.RazonSocial))
		fmt.Printf("Razón social (entrada): %s  | similitud con SRI: %d\n", razon, sim)
	}

	res := registry.AssessRelated(tp.Actividad, tp.RazonSocial, objeto)
	fmt.Println("\n=== Validación ===")
	fmt.Printf("Objeto del contrato: %s\n", objeto)
	fmt.Printf("related: %t\n", res.Related)
	fmt.Printf("why: %s\n", res.Why)
	riesgo := "ALTO"
	if res.Related {
		riesgo = "BAJO"
	}
	fmt.Printf("riesgo: %s\n", riesgo)
	return nil
}
