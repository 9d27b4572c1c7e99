package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/banky/go-hyperliquid-agent/exchange"
	"github.com/banky/go-hyperliquid-agent/internal/utils"
	"github.com/banky/go-hyperliquid-agent/server"
	"github.com/banky/go-hyperliquid-agent/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

const spotAssetOffset = 10000

func (a *app) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hlagent",
		Short: "Session agent for Hyperliquid trading",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return a.setup(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&a.flags.network, "network", "", "mainnet or testnet (overrides HLAGENT_NETWORK)")
	cmd.PersistentFlags().BoolVar(&a.flags.json, "json", false, "Output JSON")
	cmd.PersistentFlags().StringVar(&a.flags.envFile, "env-file", "", "Path to a .env file")

	cmd.AddCommand(
		a.newStatusCommand(),
		a.newEnableCommand(),
		a.newDisableCommand(),
		a.newContextCommand(),
		a.newOrderCommand(),
		a.newCancelCommand(),
		a.newLeverageCommand(),
		a.newTransferCommand(),
		a.newDelegateCommand("delegate", false),
		a.newDelegateCommand("undelegate", true),
		a.newVaultCommand(),
		a.newServeCommand(),
	)
	return cmd
}

func (a *app) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the wallet, agent state and trading context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signer := a.exchange.Signer()
			st := struct {
				Network types.Network         `json:"network"`
				Wallet  common.Address        `json:"wallet"`
				State   exchange.State        `json:"state"`
				Context exchange.ContextQuery `json:"context"`
			}{
				Network: signer.Network(),
				Wallet:  signer.Wallet().Address(),
				State:   signer.State(cmd.Context()),
				Context: a.exchange.ContextQuery(),
			}
			if a.flags.json {
				return a.printJSON(st)
			}
			fmt.Fprintf(a.stdout, "network: %s\nwallet:  %s\nagent:   %s\ncontext: %s\n",
				st.Network, st.Wallet.Hex(), st.State, st.Context.ContextLabel)
			return nil
		},
	}
}

func (a *app) newEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Approve a new agent with the wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.report(a.hooks.EnableTrading.Invoke(cmd.Context(), struct{}{}))
		},
	}
}

func (a *app) newDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Forget the agent; later actions prompt the wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.report(a.hooks.DisableTrading.Invoke(cmd.Context(), struct{}{}))
		},
	}
}

func (a *app) newContextCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Show or switch the trading context",
	}

	show := func() error {
		q := a.exchange.ContextQuery()
		if a.flags.json {
			return a.printJSON(q)
		}
		fmt.Fprintf(a.stdout, "%s (%s)\n", q.ContextLabel, q.FetchAddress.Hex())
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the trading context",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return show()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "master",
		Short: "Trade as the wallet itself",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.contexts.UseMaster(cmd.Context())
			return show()
		},
	})

	var label string
	sub := &cobra.Command{
		Use:   "sub <address>",
		Short: "Trade as one of the wallet's sub-accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseAddress(args[0])
			if err != nil {
				return err
			}
			if err := a.contexts.UseSubAccount(cmd.Context(), address, label); err != nil {
				return err
			}
			return show()
		},
	}
	sub.Flags().StringVar(&label, "label", "", "Display name of the sub-account")
	cmd.AddCommand(sub)

	return cmd
}

func (a *app) newOrderCommand() *cobra.Command {
	var (
		market     bool
		slippage   float64
		tif        string
		reduceOnly bool
		cloid      string
	)

	cmd := &cobra.Command{
		Use:   "order <coin> <buy|sell> <size> [price]",
		Short: "Place a limit order, or a market order with --market",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			coin := args[0]

			isBuy, err := parseSide(args[1])
			if err != nil {
				return err
			}
			size, err := utils.ParsePositive(args[2])
			if err != nil {
				return fmt.Errorf("size: %w", err)
			}

			if err := a.loadAssets(ctx); err != nil {
				return err
			}

			opts := []exchange.OrderOption{exchange.WithReduceOnly(reduceOnly)}
			if cloid != "" {
				opts = append(opts, exchange.WithCloid(types.HexToCloid(cloid)))
			}

			var price float64
			switch {
			case market:
				price, err = a.marketPrice(ctx, coin, isBuy, slippage)
				if err != nil {
					return err
				}
				opts = append(opts, exchange.WithLimitOrder(exchange.LimitOrder{Tif: exchange.TifIoc}))
			case len(args) == 4:
				price, err = utils.ParsePositive(args[3])
				if err != nil {
					return fmt.Errorf("price: %w", err)
				}
				opts = append(opts, exchange.WithLimitOrder(exchange.LimitOrder{Tif: exchange.Tif(tif)}))
			default:
				return fmt.Errorf("a price is required unless --market is set")
			}

			order := exchange.NewOrder(coin, isBuy, size, price, opts...)
			return a.report(a.hooks.PlaceOrder.Invoke(ctx, order))
		},
	}

	cmd.Flags().BoolVar(&market, "market", false, "Cross the spread at the mid price plus slippage")
	cmd.Flags().Float64Var(&slippage, "slippage", exchange.DEFAULT_SLIPPAGE, "Max slippage for market orders")
	cmd.Flags().StringVar(&tif, "tif", string(exchange.TifGtc), "Time in force: Gtc, Ioc or Alo")
	cmd.Flags().BoolVar(&reduceOnly, "reduce-only", false, "Only reduce an open position")
	cmd.Flags().StringVar(&cloid, "cloid", "", "Client order id (16-byte hex)")
	return cmd
}

// marketPrice is the aggressive limit price of a market order on coin.
func (a *app) marketPrice(ctx context.Context, coin string, isBuy bool, slippage float64) (float64, error) {
	asset, ok := a.info.Asset(coin)
	if !ok {
		return 0, fmt.Errorf("unknown coin %q", coin)
	}
	szDecimals, ok := a.info.SzDecimals(asset)
	if !ok {
		return 0, fmt.Errorf("no size decimals for %q", coin)
	}

	mids, err := a.info.AllMids(ctx)
	if err != nil {
		return 0, err
	}
	raw, ok := mids[coin]
	if !ok {
		return 0, fmt.Errorf("no mid price for %q", coin)
	}
	mid, err := utils.StringToFloat(raw)
	if err != nil {
		return 0, err
	}

	return exchange.SlippagePrice(mid, isBuy, slippage, szDecimals, asset >= spotAssetOffset), nil
}

func (a *app) newCancelCommand() *cobra.Command {
	var byCloid bool

	cmd := &cobra.Command{
		Use:   "cancel <coin> <oid>",
		Short: "Cancel a resting order by order id, or by client id with --cloid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadAssets(ctx); err != nil {
				return err
			}

			if byCloid {
				return a.report(a.hooks.CancelByCloid.Invoke(ctx, exchange.CancelByCloid{
					Coin:  args[0],
					Cloid: types.HexToCloid(args[1]),
				}))
			}

			var oid int64
			if _, err := fmt.Sscan(args[1], &oid); err != nil {
				return fmt.Errorf("oid: %w", err)
			}
			return a.report(a.hooks.CancelOrder.Invoke(ctx, exchange.CancelOrder{Coin: args[0], Oid: oid}))
		},
	}
	cmd.Flags().BoolVar(&byCloid, "cloid", false, "Treat the id as a client order id")
	return cmd
}

func (a *app) newLeverageCommand() *cobra.Command {
	var isolated bool

	cmd := &cobra.Command{
		Use:   "leverage <coin> <leverage>",
		Short: "Set the leverage of a perp",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var leverage int
			if _, err := fmt.Sscan(args[1], &leverage); err != nil {
				return fmt.Errorf("leverage: %w", err)
			}
			if err := a.loadAssets(ctx); err != nil {
				return err
			}
			return a.report(a.hooks.UpdateLeverage.Invoke(ctx, exchange.UpdateLeverage{
				Coin:     args[0],
				Leverage: leverage,
				IsCross:  !isolated,
			}))
		},
	}
	cmd.Flags().BoolVar(&isolated, "isolated", false, "Use isolated margin")
	return cmd
}

func (a *app) newTransferCommand() *cobra.Command {
	var toSpot, toPerp bool

	cmd := &cobra.Command{
		Use:   "transfer [destination] <amount>",
		Short: "Send USDC to another address, or between spot and perp with --to-spot/--to-perp",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			amount, err := utils.ParsePositive(args[len(args)-1])
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}

			if toSpot || toPerp {
				if toSpot && toPerp {
					return fmt.Errorf("--to-spot and --to-perp are exclusive")
				}
				return a.report(a.hooks.ClassTransfer.Invoke(ctx, exchange.UsdClassTransfer{
					Amount: amount,
					ToPerp: toPerp,
				}))
			}

			if len(args) != 2 {
				return fmt.Errorf("a destination is required")
			}
			return a.report(a.hooks.Transfer.Invoke(ctx, exchange.UsdTransfer{
				Destination: args[0],
				Amount:      amount,
			}))
		},
	}
	cmd.Flags().BoolVar(&toSpot, "to-spot", false, "Move USDC from perp to spot")
	cmd.Flags().BoolVar(&toPerp, "to-perp", false, "Move USDC from spot to perp")
	return cmd
}

func (a *app) newDelegateCommand(use string, undelegate bool) *cobra.Command {
	short := "Delegate staked HYPE to a validator"
	if undelegate {
		short = "Undelegate staked HYPE from a validator"
	}

	return &cobra.Command{
		Use:   use + " <validator> <amount>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := utils.ParsePositive(args[1])
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			hook := a.hooks.Delegate
			if undelegate {
				hook = a.hooks.Undelegate
			}
			return a.report(hook.Invoke(cmd.Context(), exchange.TokenDelegate{
				Validator: args[0],
				Amount:    amount,
			}))
		},
	}
}

func (a *app) newVaultCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Deposit into or withdraw from a vault",
	}

	for _, deposit := range []bool{true, false} {
		use, short := "withdraw", "Withdraw USDC from a vault"
		if deposit {
			use, short = "deposit", "Deposit USDC into a vault"
		}

		cmd.AddCommand(&cobra.Command{
			Use:   use + " <vault> <usd>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				usd, err := utils.ParsePositive(args[1])
				if err != nil {
					return fmt.Errorf("usd: %w", err)
				}
				hook := a.hooks.VaultWithdraw
				if deposit {
					hook = a.hooks.VaultDeposit
				}
				return a.report(hook.Invoke(cmd.Context(), exchange.VaultTransfer{
					Vault: args[0],
					Usd:   usd,
				}))
			},
		})
	}
	return cmd
}

func (a *app) newServeCommand() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.loadAssets(ctx); err != nil {
				a.log.Warn("assets not loaded, coin actions will be rejected", "error", err)
			}

			srv, err := server.New(server.Config{
				Exchange: a.exchange,
				Hooks:    a.hooks,
				Contexts: a.contexts,
				Logger:   a.log,
			})
			if err != nil {
				return err
			}

			addr := listen
			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides HLAGENT_LISTEN_ADDR)")
	return cmd
}

func parseSide(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "buy", "b", "long":
		return true, nil
	case "sell", "s", "short":
		return false, nil
	}
	return false, fmt.Errorf("side must be buy or sell, got %q", s)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%q is not an address", s)
	}
	return common.HexToAddress(s), nil
}
