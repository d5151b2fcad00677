package main

import (
	"os"
	"os/exec"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestMainProcess_ExitsOnMissingWalletKey(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") == "1" {
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainProcess_ExitsOnMissingWalletKey")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=1",
		"SERVER_ENV=development",
		"WALLET_ENCRYPTION_KEY=",
	)

	if err := cmd.Run(); err == nil {
		t.Fatalf("expected helper process to exit with error")
	}
}

func TestMainProcess_ExitsOnRedisInitFailure(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") == "2" {
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMainProcess_ExitsOnRedisInitFailure")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=2",
		"SERVER_ENV=development",
		"WALLET_ENCRYPTION_KEY="+testWalletKey,
		"REDIS_URL=redis://127.0.0.1:0",
	)

	if err := cmd.Run(); err == nil {
		t.Fatalf("expected helper process to exit with error")
	}
}

func TestMainProcess_ExitsWhenDatabaseUnreachable(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") == "3" {
		main()
		return
	}

	redisSrv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis not available in this environment: %v", err)
	}
	defer redisSrv.Close()

	cmd := exec.Command(os.Args[0], "-test.run=TestMainProcess_ExitsWhenDatabaseUnreachable")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_PROCESS=3",
		"SERVER_ENV=development",
		"WALLET_ENCRYPTION_KEY="+testWalletKey,
		"REDIS_URL=redis://"+redisSrv.Addr(),
		"DB_HOST=127.0.0.1",
		"DB_PORT=1",
		"DB_SSLMODE=disable",
	)

	if err := cmd.Run(); err == nil {
		t.Fatalf("expected helper process to exit with error when the database is unreachable")
	}
}
