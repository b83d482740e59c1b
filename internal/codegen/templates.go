package codegen

// Static project files emitted with every generated suite. Placeholders
// use the {{.Name}} form and are substituted with strings.ReplaceAll.

const playwrightConfigTemplate = `import { defineConfig, devices } from '@playwright/test';

export default defineConfig({
  testDir: './tests',
  fullyParallel: {{.Parallel}},
  workers: {{.Workers}},
  retries: process.env.CI ? 1 : 0,
  reporter: [['json', { outputFile: 'test-results/results.json' }], ['list']],
  timeout: 30000,
  use: {
    baseURL: '{{.BaseURL}}',
    screenshot: '{{.Screenshot}}',
    video: '{{.Video}}',
    trace: 'retain-on-failure',
  },
  projects: [
    {
      name: 'chromium',
      use: { ...devices['Desktop Chrome'] },
    },
  ],
});
`

const packageJSONTemplate = `{
  "name": "{{.ProjectName}}",
  "version": "1.0.0",
  "private": true,
  "description": "Generated test suite for {{.BaseURL}}",
  "scripts": {
    "test": "playwright test",
    "test:headed": "playwright test --headed",
    "report": "playwright show-report"
  },
  "devDependencies": {
    "@playwright/test": "^1.44.0"
  }
}
`

const gitignoreTemplate = `node_modules/
test-results/
playwright-report/
.env
`

const helpersTemplate = `import { Page } from '@playwright/test';

// Fills every visible text-like input on the page with a placeholder value.
export async function fillVisibleFields(page: Page): Promise<void> {
  const inputs = page.locator(
    'input:visible:not([type=hidden]):not([type=submit]):not([type=button]):not([type=checkbox]):not([type=radio]), textarea:visible'
  );
  const count = await inputs.count();
  for (let i = 0; i < count; i++) {
    const input = inputs.nth(i);
    const type = (await input.getAttribute('type')) ?? 'text';
    if (type === 'email') {
      await input.fill('test@example.com');
    } else if (type === 'password') {
      await input.fill('Test1234!');
    } else {
      await input.fill('test value');
    }
  }
}
`

const readmeTemplate = `# {{.ProjectName}}

Generated Playwright test suite for {{.BaseURL}}.

- Features: {{.TotalFeatures}}
- Scenarios: {{.TotalScenarios}}
- Generated: {{.GeneratedAt}}

## Running

    npm install
    npx playwright install chromium
    npx playwright test
`
