// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Skwela Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aytsuu/Skwela/internal/store"
)

var _ = Describe("Schema migrations", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		migrator  *store.Migrator
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("skwela_test"),
			postgres.WithUsername("skwela"),
			postgres.WithPassword("skwela"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if migrator != nil {
			_ = migrator.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("starts at version zero", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())
	})

	It("applies every migration", func() {
		Expect(migrator.Up()).To(Succeed())

		pending, err := migrator.PendingMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())

		applied, err := migrator.AppliedMigrations()
		Expect(err).NotTo(HaveOccurred())
		Expect(applied).To(Equal([]uint{1, 2}))
	})

	It("enforces case-insensitive email uniqueness", func() {
		pool, err := store.NewPool(ctx, connStr, store.PoolConfig{MaxConns: 2})
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		insert := `INSERT INTO users (id, email, display_name, display_image, role)
			VALUES ($1, $2, 'Ana', 'img', 'student')`
		_, err = pool.Exec(ctx, insert, "01HZX0000000000000000000A1", "ana@x.com")
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, insert, "01HZX0000000000000000000A2", "ANA@X.COM")
		Expect(err).To(HaveOccurred())

		_, err = pool.Exec(ctx, insert, "01HZX0000000000000000000A3", "admin@x.com")
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, `UPDATE users SET role = 'admin' WHERE id = $1`, "01HZX0000000000000000000A3")
		Expect(err).To(HaveOccurred(), "role check constraint")
	})

	It("enforces case-insensitive username uniqueness", func() {
		pool, err := store.NewPool(ctx, connStr, store.PoolConfig{MaxConns: 2})
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		insert := `INSERT INTO users (id, email, username, display_name, display_image, role)
			VALUES ($1, $2, $3, 'Ana', 'img', 'student')`
		_, err = pool.Exec(ctx, insert, "01HZX0000000000000000000B1", "u1@x.com", "ana")
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, insert, "01HZX0000000000000000000B2", "u2@x.com", "ANA")
		Expect(err).To(HaveOccurred())

		// Accounts without a username never collide.
		_, err = pool.Exec(ctx, insert, "01HZX0000000000000000000B3", "u3@x.com", nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = pool.Exec(ctx, insert, "01HZX0000000000000000000B4", "u4@x.com", nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("steps back and forward", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))

		Expect(migrator.Steps(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
	})

	It("rolls everything back and forces a version", func() {
		Expect(migrator.Down()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())

		Expect(migrator.Force(1)).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))
		Expect(dirty).To(BeFalse())
	})
})
