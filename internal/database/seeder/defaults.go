package seeder

// Defaults are the seeders run by "migrate -seed".
func Defaults(password string) []Seeder {
	return []Seeder{
		DemoAccounts{Password: password},
	}
}
